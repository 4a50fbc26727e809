// Package broker defines the execution adapter contract shared by the
// simulated and live trade backends. The backend is chosen once at
// construction; nothing in the pipeline branches on the variant.
package broker

import (
	"context"
	"time"

	"github.com/quantfold/confluence/market"
)

// Direction is the side of a trade.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return "UNKNOWN"
}

// OrderRequest is a sized, risk-approved order. It lives only on the
// way from the risk manager to the adapter.
type OrderRequest struct {
	Instrument string
	Direction  Direction
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Timeframe  market.Timeframe
	Time       time.Time
}

// Position is an open trade. StopLoss and TakeProfit are fixed at
// creation and never re-pegged.
type Position struct {
	ID         string
	Instrument string
	Direction  Direction
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	OpenTime   time.Time
	Timeframe  market.Timeframe
}

// ExecutionAdapter opens and closes positions. A failed PlaceOrder is
// an ordinary error result: callers drop the proposal and continue,
// they do not retry.
type ExecutionAdapter interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (Position, error)
	ClosePosition(ctx context.Context, id string) error
	OpenPositions(ctx context.Context) ([]Position, error)
}
