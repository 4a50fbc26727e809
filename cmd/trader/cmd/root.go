package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Multi-timeframe confluence trading simulator",
	Long: `Trader simulates a rule-based confluence strategy against historical
multi-timeframe bar series and can drive the same rules on a poll loop
in paper-trading mode.

It provides:
  - Deterministic backtests over a bar-file cache
  - Oscillator confluence signals across short/medium/long horizons
  - Risk-based position sizing with admission control
  - Trade and equity journaling to CSV or SQLite`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
