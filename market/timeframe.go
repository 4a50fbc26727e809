package market

import "fmt"

// Timeframe is the sampling interval of a bar series.
type Timeframe int32

const (
	M1  Timeframe = 60
	M5  Timeframe = 300
	M15 Timeframe = 900
	M30 Timeframe = 1800
	H1  Timeframe = 3600
	H2  Timeframe = 7200
	H4  Timeframe = 14400
	D1  Timeframe = 86400
)

var timeframeNames = map[Timeframe]string{
	M1:  "M1",
	M5:  "M5",
	M15: "M15",
	M30: "M30",
	H1:  "H1",
	H2:  "H2",
	H4:  "H4",
	D1:  "D1",
}

// Seconds returns the interval length in seconds.
func (tf Timeframe) Seconds() int64 { return int64(tf) }

func (tf Timeframe) String() string {
	if name, ok := timeframeNames[tf]; ok {
		return name
	}
	return fmt.Sprintf("TF(%ds)", int32(tf))
}

// ParseTimeframe converts a name like "M5" or "H1" to a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	for tf, name := range timeframeNames {
		if name == s {
			return tf, nil
		}
	}
	return 0, fmt.Errorf("unknown timeframe %q", s)
}

// Timeframes lists all supported intervals, fastest first.
func Timeframes() []Timeframe {
	return []Timeframe{M1, M5, M15, M30, H1, H2, H4, D1}
}
