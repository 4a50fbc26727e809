// Package journal persists the three artifacts a run produces: the
// closed-trade ledger, the equity curve, and the final summary. The
// core hands these off fully populated and opaque; nothing reads them
// back during a run.
package journal

import (
	"time"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/market"
)

// TradeRecord is one closed trade. Records are append-only and each one
// traces to exactly one previously opened position.
type TradeRecord struct {
	TradeID    string
	Instrument string
	Direction  broker.Direction
	Timeframe  market.Timeframe
	Volume     float64
	EntryPrice float64
	ExitPrice  float64
	StopLoss   float64
	TakeProfit float64
	OpenTime   time.Time
	CloseTime  time.Time
	Profit     float64
	Reason     string
}

// EquityPoint is one balance sample, appended once per simulated bar.
type EquityPoint struct {
	Time    time.Time
	Balance float64
}

// Summary holds the derived performance statistics for a completed run.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	TotalProfit   float64
	TotalLoss     float64
	WinRate       float64
	ProfitFactor  float64
	MaxDrawdown   float64
	FinalBalance  float64
}

// Journal is the persistence sink contract.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	RecordSummary(Summary) error
	Close() error
}
