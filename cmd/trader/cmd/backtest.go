package cmd

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/quantfold/confluence/backtest"
	"github.com/quantfold/confluence/broker/sim"
	"github.com/quantfold/confluence/config"
	"github.com/quantfold/confluence/journal"
	"github.com/quantfold/confluence/logger"
	"github.com/quantfold/confluence/market"
	"github.com/quantfold/confluence/pipeline"
	"github.com/quantfold/confluence/risk"
	"github.com/quantfold/confluence/strategy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a deterministic backtest over the configured bar cache",
	Long: `Backtest replays the primary timeframe bar-by-bar, evaluates the
confluence strategy on a time-bounded view of every watched timeframe,
and journals the resulting trades, equity curve, and summary.

Example:
  trader backtest -c config.yaml`,
	RunE: runBacktest,
}

var btConfigPath string

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "", "path to config file (required)")
	backtestCmd.MarkFlagRequired("config")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfigPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	data, err := loadData(cfg, log)
	if err != nil {
		return err
	}

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

	engine, err := backtest.NewEngine(backtest.Config{
		Instrument:     cfg.Trading.Instrument,
		Primary:        cfg.Primary(),
		InitialBalance: cfg.Backtest.InitialBalance,
		PointSize:      cfg.Trading.PointSize,
		PipValue:       cfg.Trading.PipValue,
	}, data, gen, exec, log.Named("backtest"))
	if err != nil {
		return err
	}

	res, err := engine.Run(context.Background())
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	if err := persist(cfg, res); err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	printSummary(res.Summary)
	return nil
}

// loadData reads the primary plus all watched timeframes. A missing
// watched timeframe is skipped with a warning; a missing primary is
// fatal since the engine has no clock without it.
func loadData(cfg *config.Config, log *zap.Logger) (map[market.Timeframe]market.Series, error) {
	source := market.DirSource{Dir: cfg.Backtest.DataDir, Instrument: cfg.Trading.Instrument}

	want := map[market.Timeframe]bool{cfg.Primary(): true}
	for _, tf := range cfg.Timeframes() {
		want[tf] = true
	}

	data := make(map[market.Timeframe]market.Series, len(want))
	for tf := range want {
		s, err := source.Load(tf)
		if err != nil {
			if errors.Is(err, market.ErrNoSeries) && tf != cfg.Primary() {
				log.Warn("no data for timeframe, skipping", zap.Stringer("timeframe", tf))
				continue
			}
			return nil, err
		}
		data[tf] = s
		log.Info("loaded series", zap.Stringer("timeframe", tf), zap.Int("bars", s.Len()))
	}
	return data, nil
}

func persist(cfg *config.Config, res *backtest.Result) error {
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	for _, t := range res.Trades {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	for _, e := range res.Equity {
		if err := j.RecordEquity(e); err != nil {
			return err
		}
	}
	return j.RecordSummary(res.Summary)
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile, cfg.Journal.SummaryFile)
	}
}

func printSummary(s journal.Summary) {
	fmt.Printf("\nBacktest Complete!\n")
	fmt.Printf("  Trades:        %d (%d won / %d lost)\n", s.TotalTrades, s.WinningTrades, s.LosingTrades)
	fmt.Printf("  Win rate:      %.1f%%\n", 100*s.WinRate)
	if math.IsInf(s.ProfitFactor, 1) {
		fmt.Printf("  Profit factor: inf\n")
	} else {
		fmt.Printf("  Profit factor: %.2f\n", s.ProfitFactor)
	}
	fmt.Printf("  Gross profit:  %.2f\n", s.TotalProfit)
	fmt.Printf("  Gross loss:    %.2f\n", s.TotalLoss)
	fmt.Printf("  Max drawdown:  %.2f%%\n", 100*s.MaxDrawdown)
	fmt.Printf("  Final balance: %.2f\n", s.FinalBalance)
}
