package market

import (
	"fmt"
	"sort"
	"time"
)

// Bar is one OHLC(V) sample for a fixed interval. Bars are values and
// never mutate after production.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is the ordered bar history for one (instrument, timeframe)
// pair. Timestamps are strictly increasing; insertion order is
// chronological order.
type Series struct {
	Instrument string
	Timeframe  Timeframe
	Bars       []Bar
}

// Append adds a bar to the series. Bars must arrive in strictly
// increasing time order; a stale or duplicate timestamp is an error.
func (s *Series) Append(b Bar) error {
	if n := len(s.Bars); n > 0 && !b.Time.After(s.Bars[n-1].Time) {
		return fmt.Errorf("series %s %s: bar at %s not after %s",
			s.Instrument, s.Timeframe, b.Time, s.Bars[n-1].Time)
	}
	s.Bars = append(s.Bars, b)
	return nil
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar, or false when the series is empty.
func (s *Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns the close prices in chronological order.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Prefix returns the sub-series of bars with timestamp <= cutoff. The
// returned series shares the backing array; callers treat it as
// read-only. This is the view handed to strategies during a backtest:
// bars after the cutoff must stay invisible.
func (s *Series) Prefix(cutoff time.Time) Series {
	n := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Time.After(cutoff)
	})
	return Series{
		Instrument: s.Instrument,
		Timeframe:  s.Timeframe,
		Bars:       s.Bars[:n],
	}
}
