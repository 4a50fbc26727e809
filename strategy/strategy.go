// Package strategy turns multi-timeframe bar history into directional
// trade proposals. A proposal fires only on confluence: the short,
// medium, and long oscillator horizons must all agree before a
// timeframe emits anything.
package strategy

import (
	"time"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/market"
)

// Levels are the overbought/oversold thresholds for one horizon.
type Levels struct {
	Overbought float64
	Oversold   float64
}

// Horizons are the three oscillator lookback periods.
type Horizons struct {
	Short  int
	Medium int
	Long   int
}

// Max returns the largest configured period, the minimum bar count a
// timeframe needs before it can be evaluated.
func (h Horizons) Max() int {
	m := h.Short
	if h.Medium > m {
		m = h.Medium
	}
	if h.Long > m {
		m = h.Long
	}
	return m
}

// Thresholds hold the per-horizon levels.
type Thresholds struct {
	Short  Levels
	Medium Levels
	Long   Levels
}

// Config describes one confluence strategy.
type Config struct {
	Timeframes []market.Timeframe
	Periods    Horizons
	Levels     Thresholds

	// TimeframeLevels optionally overrides Levels for individual
	// timeframes.
	TimeframeLevels map[market.Timeframe]Thresholds

	// StopPips/TargetPips offset the latest close to place the stop and
	// target; PointSize converts pips to price units.
	StopPips   float64
	TargetPips float64
	PointSize  float64
}

// Proposal is a directional trade suggestion for one timeframe. It is
// consumed exactly once: either approved into an order or discarded.
type Proposal struct {
	Direction  broker.Direction
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Timeframe  market.Timeframe
	Time       time.Time
}
