// Package indicators provides the technical indicators consumed by the
// signal generator. Indicators are deterministic and safe to reuse
// across backtests, replays, and the live loop.
package indicators

import "github.com/quantfold/confluence/market"

// Indicator computes a single streaming value from closed bars.
type Indicator interface {
	// Name returns a stable identifier like "RSI(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be
	// true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next closed bar.
	Update(b market.Bar)

	// Ready reports whether Value() is meaningful.
	Ready() bool

	// Value returns the current value. Callers must check Ready();
	// before warmup the return is unspecified.
	Value() float64
}

// Reading is one indicator sample aligned with a bar index. Valid is
// false during warmup. Zero is a legitimate oscillator value, so the
// zero float alone cannot signal "not yet available".
type Reading struct {
	Value float64
	Valid bool
}
