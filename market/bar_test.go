package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesAt(t *testing.T, times ...time.Time) Series {
	t.Helper()
	s := Series{Instrument: "XAUUSD", Timeframe: M5}
	for i, tm := range times {
		require.NoError(t, s.Append(Bar{Time: tm, Close: float64(i)}))
	}
	return s
}

func TestSeriesAppendOrdering(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := seriesAt(t, t0, t0.Add(5*time.Minute))

	assert.Error(t, s.Append(Bar{Time: t0.Add(5 * time.Minute)}), "duplicate timestamp")
	assert.Error(t, s.Append(Bar{Time: t0}), "stale timestamp")
	require.NoError(t, s.Append(Bar{Time: t0.Add(10 * time.Minute)}))
	assert.Equal(t, 3, s.Len())
}

func TestSeriesLast(t *testing.T) {
	t.Parallel()

	var empty Series
	_, ok := empty.Last()
	assert.False(t, ok)

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := seriesAt(t, t0, t0.Add(5*time.Minute))
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, t0.Add(5*time.Minute), last.Time)
}

func TestSeriesPrefix(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := seriesAt(t, t0, t0.Add(5*time.Minute), t0.Add(10*time.Minute))

	tests := []struct {
		name   string
		cutoff time.Time
		want   int
	}{
		{"before first", t0.Add(-time.Minute), 0},
		{"exactly first", t0, 1},
		{"between bars", t0.Add(7 * time.Minute), 2},
		{"exactly last", t0.Add(10 * time.Minute), 3},
		{"after last", t0.Add(time.Hour), 3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := s.Prefix(tt.cutoff)
			assert.Equal(t, tt.want, p.Len())
			assert.Equal(t, s.Instrument, p.Instrument)
			assert.Equal(t, s.Timeframe, p.Timeframe)
			for _, b := range p.Bars {
				assert.False(t, b.Time.After(tt.cutoff))
			}
		})
	}
}

func TestSeriesCloses(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := seriesAt(t, t0, t0.Add(5*time.Minute), t0.Add(10*time.Minute))
	assert.Equal(t, []float64{0, 1, 2}, s.Closes())
}

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	for _, tf := range Timeframes() {
		got, err := ParseTimeframe(tf.String())
		require.NoError(t, err)
		assert.Equal(t, tf, got)
	}

	_, err := ParseTimeframe("M7")
	assert.Error(t, err)
}

func TestTimeframeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "M5", M5.String())
	assert.Equal(t, "D1", D1.String())
	assert.Equal(t, "TF(42s)", Timeframe(42).String())
	assert.Equal(t, int64(300), M5.Seconds())
}
