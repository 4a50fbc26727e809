package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantfold/confluence/broker/sim"
	"github.com/quantfold/confluence/config"
	"github.com/quantfold/confluence/logger"
	"github.com/quantfold/confluence/market"
	"github.com/quantfold/confluence/pipeline"
	"github.com/quantfold/confluence/risk"
	"github.com/quantfold/confluence/scheduler"
	"github.com/quantfold/confluence/strategy"
	"github.com/spf13/cobra"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run the strategy on a poll loop (paper trading)",
	Long: `Live polls the bar cache on the configured interval and drives the
same signal/risk/execution pipeline the backtest uses. Orders go to the
simulated adapter; wiring a real terminal client is an external
integration.

Stops cleanly on SIGINT/SIGTERM: every worker finishes its current
cycle before exiting.`,
	RunE: runLive,
}

var liveConfigPath string

func init() {
	rootCmd.AddCommand(liveCmd)
	liveCmd.Flags().StringVarP(&liveConfigPath, "config", "c", "", "path to config file (required)")
	liveCmd.MarkFlagRequired("config")
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(liveConfigPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	gen, err := strategy.NewGenerator(cfg.StrategyConfig(), log.Named("strategy"))
	if err != nil {
		return err
	}

	exec := &pipeline.Executor{
		Risk:       risk.NewManager(cfg.RiskLimits(), log.Named("risk")),
		Adapter:    sim.New(),
		Instrument: cfg.Trading.Instrument,
		PointSize:  cfg.Trading.PointSize,
		PipValue:   cfg.Trading.PipValue,
		RiskPct:    cfg.Trading.RiskPerTrade,
		Log:        log.Named("pipeline"),
	}

	interval, err := cfg.Live.PollInterval()
	if err != nil {
		return err
	}

	// Paper trading sizes against the configured starting balance.
	balance := cfg.Backtest.InitialBalance
	mgr := scheduler.New(exec, func() float64 { return balance }, log.Named("scheduler"))

	err = mgr.Add(&scheduler.Worker{
		Name:     "confluence-" + cfg.Trading.Instrument,
		Source:   market.DirSource{Dir: cfg.Backtest.DataDir, Instrument: cfg.Trading.Instrument},
		Gen:      gen,
		Interval: interval,
	})
	if err != nil {
		return err
	}

	if err := mgr.Start(); err != nil {
		return err
	}

	fmt.Printf("Paper trading %s every %s. Ctrl-C to stop.\n", cfg.Trading.Instrument, interval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	mgr.Stop()
	return nil
}
