package indicators

import (
	"fmt"

	"github.com/quantfold/confluence/market"
)

// RSI is a streaming Wilder relative strength index. Gains and losses
// are smoothed with the recursive average avg' = (avg*(p-1) + x) / p,
// seeded with the simple mean of the first p deltas.
type RSI struct {
	period int

	prevClose float64
	haveClose bool

	count   int // deltas consumed
	sumGain float64
	sumLoss float64
	avgGain float64
	avgLoss float64
}

// NewRSI creates a streaming RSI with the given period. Period must be
// positive; the constructor panics otherwise since a non-positive
// period is a programmer error, not a data condition.
func NewRSI(period int) *RSI {
	if period <= 0 {
		panic(fmt.Sprintf("indicators: RSI period must be positive, got %d", period))
	}
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI(%d)", r.period)
}

// Warmup is period+1 bars: one to establish the previous close plus
// period deltas for the seed average.
func (r *RSI) Warmup() int { return r.period + 1 }

func (r *RSI) Reset() {
	r.prevClose = 0
	r.haveClose = false
	r.count = 0
	r.sumGain = 0
	r.sumLoss = 0
	r.avgGain = 0
	r.avgLoss = 0
}

func (r *RSI) Update(b market.Bar) {
	r.UpdateClose(b.Close)
}

// UpdateClose consumes the next close price directly. The signal
// generator works from close slices, so this avoids building bars.
func (r *RSI) UpdateClose(close float64) {
	if !r.haveClose {
		r.prevClose = close
		r.haveClose = true
		return
	}

	delta := close - r.prevClose
	r.prevClose = close

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	r.count++
	switch {
	case r.count < r.period:
		r.sumGain += gain
		r.sumLoss += loss
	case r.count == r.period:
		r.sumGain += gain
		r.sumLoss += loss
		r.avgGain = r.sumGain / float64(r.period)
		r.avgLoss = r.sumLoss / float64(r.period)
	default:
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}
}

func (r *RSI) Ready() bool {
	return r.count >= r.period
}

// Value returns the oscillator in [0,100]. The zero-loss case maps to
// 100 and the zero-gain case to 0 before any ratio is formed, so a flat
// warmup window (0/0) yields 100 rather than NaN.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	if r.avgGain == 0 {
		return 0
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// Values computes the RSI over closes, aligned 1:1 with the input.
// Entries before warmup carry Valid=false.
func Values(closes []float64, period int) []Reading {
	r := NewRSI(period)
	out := make([]Reading, len(closes))
	for i, c := range closes {
		r.UpdateClose(c)
		if r.Ready() {
			out[i] = Reading{Value: r.Value(), Valid: true}
		}
	}
	return out
}

// Last computes the RSI at the final close, or ok=false when the series
// is too short for the period.
func Last(closes []float64, period int) (float64, bool) {
	r := NewRSI(period)
	for _, c := range closes {
		r.UpdateClose(c)
	}
	if !r.Ready() {
		return 0, false
	}
	return r.Value(), true
}
