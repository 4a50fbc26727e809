// Package metrics derives performance statistics from a completed run.
// The summary is computed once from the full ledger, never maintained
// incrementally, so it cannot drift from partial updates.
package metrics

import (
	"math"

	"github.com/quantfold/confluence/journal"
)

// Summarize computes the run summary from the closed-trade ledger.
// maxDrawdown is carried over from the engine's running computation
// rather than recomputed from the curve, so intra-run peaks are counted
// exactly once.
func Summarize(trades []journal.TradeRecord, maxDrawdown, finalBalance float64) journal.Summary {
	s := journal.Summary{
		TotalTrades:  len(trades),
		MaxDrawdown:  maxDrawdown,
		FinalBalance: finalBalance,
	}

	for _, t := range trades {
		switch {
		case t.Profit > 0:
			s.WinningTrades++
			s.TotalProfit += t.Profit
		case t.Profit < 0:
			s.LosingTrades++
			s.TotalLoss += -t.Profit
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades)
	}

	switch {
	case s.TotalLoss > 0:
		s.ProfitFactor = s.TotalProfit / s.TotalLoss
	case s.TotalProfit > 0:
		s.ProfitFactor = math.Inf(1)
	default:
		s.ProfitFactor = 0
	}

	return s
}
