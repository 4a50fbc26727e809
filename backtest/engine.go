// Package backtest drives the strategy pipeline bar-by-bar over
// historical series. The engine owns the clock: "now" is always the
// primary timeframe's current bar, never the wall clock, and every view
// handed to the strategy is truncated so no bar after "now" is visible.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/journal"
	"github.com/quantfold/confluence/market"
	"github.com/quantfold/confluence/metrics"
	"github.com/quantfold/confluence/pipeline"
	"github.com/quantfold/confluence/strategy"
	"go.uber.org/zap"
)

// Close reasons recorded on the ledger.
const (
	ReasonStop   = "STOP"
	ReasonTarget = "TARGET"
)

// Config holds the simulation parameters.
type Config struct {
	Instrument     string
	Primary        market.Timeframe
	InitialBalance float64
	PointSize      float64
	PipValue       float64
}

// Result bundles the three artifacts a run hands to the persistence
// sink.
type Result struct {
	Trades  []journal.TradeRecord
	Equity  []journal.EquityPoint
	Summary journal.Summary
}

// SignalGenerator produces proposals from a time-bounded view. The
// concrete strategy.Generator satisfies it; tests substitute spies.
type SignalGenerator interface {
	Evaluate(view map[market.Timeframe]market.Series) []strategy.Proposal
}

// Engine is the single-threaded simulation loop. Given identical data
// and configuration two runs produce identical results; there is no
// randomness and no wall-clock dependence in the loop.
type Engine struct {
	cfg  Config
	data map[market.Timeframe]market.Series
	gen  SignalGenerator
	exec *pipeline.Executor
	log  *zap.Logger
}

func NewEngine(cfg Config, data map[market.Timeframe]market.Series, gen SignalGenerator, exec *pipeline.Executor, log *zap.Logger) (*Engine, error) {
	if cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("backtest: initial balance must be positive, got %v", cfg.InitialBalance)
	}
	if cfg.PointSize <= 0 || cfg.PipValue <= 0 {
		return nil, fmt.Errorf("backtest: point size and pip value must be positive")
	}
	primary, ok := data[cfg.Primary]
	if !ok || primary.Len() == 0 {
		return nil, fmt.Errorf("backtest: no data for primary timeframe %s", cfg.Primary)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{cfg: cfg, data: data, gen: gen, exec: exec, log: log}, nil
}

// Run executes the simulation and computes the summary once from the
// full ledger. The loop starts at the second primary bar; the first is
// lookback context only. An account blown down to zero terminates the
// run early, and the summary still covers the partial ledger.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	primary := e.data[e.cfg.Primary]

	balance := e.cfg.InitialBalance
	peak := balance
	maxDrawdown := 0.0

	var (
		open   []broker.Position
		trades []journal.TradeRecord
		equity []journal.EquityPoint
	)

	var lastDay time.Time

	for i := 1; i < primary.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bar := primary.Bars[i]
		now := bar.Time

		if day := now.UTC().Truncate(24 * time.Hour); !day.Equal(lastDay) {
			if !lastDay.IsZero() {
				e.exec.Risk.ResetDaily()
			}
			lastDay = day
		}

		// 1. Time-bounded view per watched timeframe: bars after "now"
		// must be invisible.
		view := make(map[market.Timeframe]market.Series, len(e.data))
		for tf, s := range e.data {
			view[tf] = s.Prefix(now)
		}

		// 2-3. Signals through the shared admission pipeline.
		proposals := e.gen.Evaluate(view)
		open = append(open, e.exec.Submit(ctx, balance, proposals)...)

		// 4. Close-touch evaluation against the primary close.
		remaining := open[:0]
		for _, pos := range open {
			exit, reason, hit := checkExit(pos, bar.Close)
			if !hit {
				remaining = append(remaining, pos)
				continue
			}

			profit := e.realized(pos, exit)
			balance += profit

			if err := e.exec.Adapter.ClosePosition(ctx, pos.ID); err != nil {
				e.log.Warn("close position", zap.String("id", pos.ID), zap.Error(err))
			}
			e.exec.Risk.RegisterClose(profit)

			trades = append(trades, journal.TradeRecord{
				TradeID:    pos.ID,
				Instrument: pos.Instrument,
				Direction:  pos.Direction,
				Timeframe:  pos.Timeframe,
				Volume:     pos.Volume,
				EntryPrice: pos.EntryPrice,
				ExitPrice:  exit,
				StopLoss:   pos.StopLoss,
				TakeProfit: pos.TakeProfit,
				OpenTime:   pos.OpenTime,
				CloseTime:  now,
				Profit:     profit,
				Reason:     reason,
			})

			e.log.Info("position closed",
				zap.String("id", pos.ID),
				zap.String("reason", reason),
				zap.Float64("profit", profit),
				zap.Float64("balance", balance))
		}
		open = remaining

		// 5. One equity point per bar, trade activity or not.
		equity = append(equity, journal.EquityPoint{Time: now, Balance: balance})

		// Account blown: hard stop, not retryable.
		if balance <= 0 {
			e.log.Warn("account depleted, stopping backtest",
				zap.Time("at", now), zap.Float64("balance", balance))
			break
		}

		// 6. Running peak and drawdown.
		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			if dd := (peak - balance) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	summary := metrics.Summarize(trades, maxDrawdown, balance)
	return &Result{Trades: trades, Equity: equity, Summary: summary}, nil
}

// checkExit models SL/TP touch on the bar close. When one close
// satisfies both levels (wide bars, gaps) the stop wins; that is the
// conservative outcome.
func checkExit(pos broker.Position, close float64) (exit float64, reason string, hit bool) {
	var stopHit, targetHit bool
	if pos.Direction == broker.Long {
		stopHit = close <= pos.StopLoss
		targetHit = close >= pos.TakeProfit
	} else {
		stopHit = close >= pos.StopLoss
		targetHit = close <= pos.TakeProfit
	}

	switch {
	case stopHit:
		return pos.StopLoss, ReasonStop, true
	case targetHit:
		return pos.TakeProfit, ReasonTarget, true
	}
	return 0, "", false
}

// realized converts the exit at the touched level into account
// currency. Leverage is treated as already embedded in volume; P/L is
// pip count x pip value x volume for both sides, uniformly.
func (e *Engine) realized(pos broker.Position, exit float64) float64 {
	pips := (exit - pos.EntryPrice) / e.cfg.PointSize
	if pos.Direction == broker.Short {
		pips = -pips
	}
	return pips * e.cfg.PipValue * pos.Volume
}
