package metrics

import (
	"math"
	"testing"

	"github.com/quantfold/confluence/journal"
	"github.com/stretchr/testify/assert"
)

func trade(profit float64) journal.TradeRecord {
	return journal.TradeRecord{Profit: profit}
}

func TestSummarizeEmptyLedger(t *testing.T) {
	t.Parallel()

	s := Summarize(nil, 0, 10000)
	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.Zero(t, s.ProfitFactor)
	assert.Equal(t, 10000.0, s.FinalBalance)
}

func TestSummarizeMixed(t *testing.T) {
	t.Parallel()

	trades := []journal.TradeRecord{trade(1200), trade(-500), trade(-100), trade(0)}
	s := Summarize(trades, 0.05, 10600)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Equal(t, 2, s.LosingTrades)
	assert.InDelta(t, 1200, s.TotalProfit, 1e-9)
	assert.InDelta(t, 600, s.TotalLoss, 1e-9)
	assert.InDelta(t, 0.25, s.WinRate, 1e-9)
	assert.InDelta(t, 2.0, s.ProfitFactor, 1e-9)
	assert.InDelta(t, 0.05, s.MaxDrawdown, 1e-9)
	assert.InDelta(t, 10600, s.FinalBalance, 1e-9)
}

func TestSummarizeOnlyWins(t *testing.T) {
	t.Parallel()

	s := Summarize([]journal.TradeRecord{trade(100), trade(50)}, 0, 10150)
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.InDelta(t, 1.0, s.WinRate, 1e-9)
	assert.Zero(t, s.TotalLoss)
}

func TestSummarizeOnlyLosses(t *testing.T) {
	t.Parallel()

	s := Summarize([]journal.TradeRecord{trade(-100)}, 0.01, 9900)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.WinRate)
	assert.InDelta(t, 100, s.TotalLoss, 1e-9)
}

func TestSummarizeBreakevenTradesCountedInTotal(t *testing.T) {
	t.Parallel()

	// Zero-profit trades are neither wins nor losses but still count
	// toward the denominator.
	s := Summarize([]journal.TradeRecord{trade(0), trade(0), trade(10)}, 0, 10010)
	assert.Equal(t, 3, s.TotalTrades)
	assert.Equal(t, 1, s.WinningTrades)
	assert.Zero(t, s.LosingTrades)
	assert.InDelta(t, 1.0/3.0, s.WinRate, 1e-9)
}
