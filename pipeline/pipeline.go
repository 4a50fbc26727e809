// Package pipeline is the proposal submission stage shared by the
// backtest engine and the live scheduler: stop-distance guard, sizing,
// admission control, order placement, counter update. Keeping it in one
// place is what stops the two regimes from growing divergent copies of
// the same business logic.
package pipeline

import (
	"context"
	"math"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/risk"
	"github.com/quantfold/confluence/strategy"
	"go.uber.org/zap"
)

// Executor submits proposals through risk control to an execution
// adapter.
type Executor struct {
	Risk       *risk.Manager
	Adapter    broker.ExecutionAdapter
	Instrument string
	PointSize  float64
	PipValue   float64
	RiskPct    float64
	Log        *zap.Logger
}

// Submit runs each proposal through the admission pipeline and returns
// the positions that opened. Every rejection (zero stop distance,
// sizing failure, admission refusal, adapter failure) drops just that
// proposal with a diagnostic; nothing here is an error to the caller,
// and nothing is retried.
//
// On a successful open the risk counter is updated immediately, before
// the next proposal is examined, so later proposals in the same batch
// see the new exposure.
func (e *Executor) Submit(ctx context.Context, balance float64, proposals []strategy.Proposal) []broker.Position {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	var opened []broker.Position
	for _, p := range proposals {
		stopDistance := math.Abs(p.Price - p.StopLoss)
		if stopDistance == 0 {
			log.Warn("proposal dropped: zero stop distance",
				zap.Stringer("timeframe", p.Timeframe))
			continue
		}

		stopPips := stopDistance / e.PointSize
		volume, err := e.Risk.Size(balance, e.RiskPct, stopPips, e.PipValue)
		if err != nil {
			log.Warn("proposal dropped: sizing failed", zap.Error(err))
			continue
		}

		if !e.Risk.CanOpen(volume, p.Price) {
			log.Debug("proposal dropped: admission rejected",
				zap.Stringer("direction", p.Direction),
				zap.Float64("volume", volume))
			continue
		}

		pos, err := e.Adapter.PlaceOrder(ctx, broker.OrderRequest{
			Instrument: e.Instrument,
			Direction:  p.Direction,
			Volume:     volume,
			Price:      p.Price,
			StopLoss:   p.StopLoss,
			TakeProfit: p.TakeProfit,
			Timeframe:  p.Timeframe,
			Time:       p.Time,
		})
		if err != nil {
			log.Warn("proposal dropped: order placement failed", zap.Error(err))
			continue
		}

		e.Risk.RegisterOpen()
		opened = append(opened, pos)

		log.Info("position opened",
			zap.String("id", pos.ID),
			zap.Stringer("direction", pos.Direction),
			zap.Stringer("timeframe", pos.Timeframe),
			zap.Float64("volume", pos.Volume),
			zap.Float64("entry", pos.EntryPrice),
			zap.Float64("sl", pos.StopLoss),
			zap.Float64("tp", pos.TakeProfit))
	}
	return opened
}
