// Package sim is the in-memory execution backend. Orders always fill,
// there are no network error modes, and state lives entirely in the
// adapter.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/internal/id"
)

// Adapter implements broker.ExecutionAdapter against an in-memory
// position set.
type Adapter struct {
	mu        sync.Mutex
	positions map[string]broker.Position
	order     []string // insertion order, for stable OpenPositions
	newID     func() string
}

// Option configures the adapter.
type Option func(*Adapter)

// WithIDFunc overrides the position id generator. Tests use a counter
// here so two identical runs produce identical ledgers.
func WithIDFunc(fn func() string) Option {
	return func(a *Adapter) { a.newID = fn }
}

func New(opts ...Option) *Adapter {
	a := &Adapter{
		positions: make(map[string]broker.Position),
		newID:     id.New,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PlaceOrder always accepts and returns the resulting position.
func (a *Adapter) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Position, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pos := broker.Position{
		ID:         a.newID(),
		Instrument: req.Instrument,
		Direction:  req.Direction,
		Volume:     req.Volume,
		EntryPrice: req.Price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenTime:   req.Time,
		Timeframe:  req.Timeframe,
	}
	a.positions[pos.ID] = pos
	a.order = append(a.order, pos.ID)
	return pos, nil
}

func (a *Adapter) ClosePosition(ctx context.Context, posID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.positions[posID]; !ok {
		return fmt.Errorf("sim: position %q not open", posID)
	}
	delete(a.positions, posID)
	for i, oid := range a.order {
		if oid == posID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return nil
}

func (a *Adapter) OpenPositions(ctx context.Context) ([]broker.Position, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]broker.Position, 0, len(a.order))
	for _, oid := range a.order {
		out = append(out, a.positions[oid])
	}
	return out, nil
}
