// Package live adapts an external trading terminal to the execution
// contract. The terminal client itself (session handling, wire format)
// is an external integration; this package only translates calls and
// surfaces broker-side rejections as ordinary errors so the pipeline
// can drop the proposal and move on.
package live

import (
	"context"
	"fmt"

	"github.com/quantfold/confluence/broker"
	"go.uber.org/zap"
)

// Terminal is the contract a terminal client must satisfy. PlaceOrder
// returns the terminal-assigned order id; an empty id with nil error is
// treated as a rejection.
type Terminal interface {
	PlaceOrder(ctx context.Context, req broker.OrderRequest) (string, error)
	ClosePosition(ctx context.Context, orderID string) error
	OpenPositions(ctx context.Context) ([]broker.Position, error)
}

// Adapter implements broker.ExecutionAdapter over a Terminal.
type Adapter struct {
	term Terminal
	log  *zap.Logger
}

func New(term Terminal, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{term: term, log: log}
}

func (a *Adapter) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Position, error) {
	orderID, err := a.term.PlaceOrder(ctx, req)
	if err != nil {
		return broker.Position{}, fmt.Errorf("live: place %s %s: %w", req.Direction, req.Instrument, err)
	}
	if orderID == "" {
		return broker.Position{}, fmt.Errorf("live: order rejected by terminal for %s %s", req.Direction, req.Instrument)
	}

	a.log.Info("order placed",
		zap.String("order_id", orderID),
		zap.String("direction", req.Direction.String()),
		zap.Float64("volume", req.Volume),
		zap.Float64("price", req.Price))

	return broker.Position{
		ID:         orderID,
		Instrument: req.Instrument,
		Direction:  req.Direction,
		Volume:     req.Volume,
		EntryPrice: req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenTime:   req.Time,
		Timeframe:  req.Timeframe,
	}, nil
}

func (a *Adapter) ClosePosition(ctx context.Context, posID string) error {
	if err := a.term.ClosePosition(ctx, posID); err != nil {
		return fmt.Errorf("live: close %s: %w", posID, err)
	}
	a.log.Info("position closed", zap.String("order_id", posID))
	return nil
}

func (a *Adapter) OpenPositions(ctx context.Context) ([]broker.Position, error) {
	pos, err := a.term.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("live: open positions: %w", err)
	}
	return pos, nil
}
