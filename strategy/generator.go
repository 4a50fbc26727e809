package strategy

import (
	"fmt"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/indicators"
	"github.com/quantfold/confluence/market"
	"go.uber.org/zap"
)

// Generator evaluates oscillator confluence over a time-bounded view of
// the watched timeframes. It holds no clock and no position state, so
// the same instance serves backtest and live cycles.
type Generator struct {
	cfg Config
	log *zap.Logger
}

func NewGenerator(cfg Config, log *zap.Logger) (*Generator, error) {
	if len(cfg.Timeframes) == 0 {
		return nil, fmt.Errorf("strategy: no timeframes configured")
	}
	if cfg.Periods.Short <= 0 || cfg.Periods.Medium <= 0 || cfg.Periods.Long <= 0 {
		return nil, fmt.Errorf("strategy: horizon periods must be positive, got %+v", cfg.Periods)
	}
	if cfg.PointSize <= 0 {
		return nil, fmt.Errorf("strategy: point size must be positive, got %v", cfg.PointSize)
	}
	if cfg.StopPips <= 0 || cfg.TargetPips <= 0 {
		return nil, fmt.Errorf("strategy: stop and target pips must be positive")
	}
	// Zero-valued thresholds make every warmed-up reading a signal.
	if err := checkThresholds(cfg.Levels); err != nil {
		return nil, fmt.Errorf("strategy: levels: %w", err)
	}
	for tf, th := range cfg.TimeframeLevels {
		if err := checkThresholds(th); err != nil {
			return nil, fmt.Errorf("strategy: levels for %s: %w", tf, err)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{cfg: cfg, log: log}, nil
}

// Timeframes returns the watched timeframes in configured order.
func (g *Generator) Timeframes() []market.Timeframe {
	return g.cfg.Timeframes
}

// Evaluate computes the three oscillator readings at the latest bar of
// every watched timeframe and emits at most one proposal per timeframe.
// Timeframes missing from the view or without enough history are
// skipped with a diagnostic, never treated as a signal. Proposals are
// not ranked or deduplicated across timeframes; admission control
// decides what actually opens.
func (g *Generator) Evaluate(view map[market.Timeframe]market.Series) []Proposal {
	var proposals []Proposal

	for _, tf := range g.cfg.Timeframes {
		series, ok := view[tf]
		if !ok {
			g.log.Debug("no data for timeframe", zap.Stringer("timeframe", tf))
			continue
		}
		if series.Len() < g.cfg.Periods.Max() {
			g.log.Debug("insufficient history",
				zap.Stringer("timeframe", tf),
				zap.Int("bars", series.Len()),
				zap.Int("need", g.cfg.Periods.Max()))
			continue
		}

		closes := series.Closes()
		short, okS := indicators.Last(closes, g.cfg.Periods.Short)
		medium, okM := indicators.Last(closes, g.cfg.Periods.Medium)
		long, okL := indicators.Last(closes, g.cfg.Periods.Long)
		if !okS || !okM || !okL {
			g.log.Debug("oscillator not warmed up", zap.Stringer("timeframe", tf))
			continue
		}

		last, _ := series.Last()
		levels := g.levelsFor(tf)

		g.log.Debug("oscillator readings",
			zap.Stringer("timeframe", tf),
			zap.Float64("short", short),
			zap.Float64("medium", medium),
			zap.Float64("long", long))

		switch {
		case short >= levels.Short.Overbought &&
			medium >= levels.Medium.Overbought &&
			long >= levels.Long.Overbought:
			proposals = append(proposals, g.propose(broker.Short, tf, last))

		case short <= levels.Short.Oversold &&
			medium <= levels.Medium.Oversold &&
			long <= levels.Long.Oversold:
			proposals = append(proposals, g.propose(broker.Long, tf, last))
		}
	}

	return proposals
}

func checkThresholds(t Thresholds) error {
	for _, l := range []Levels{t.Short, t.Medium, t.Long} {
		if l.Oversold >= l.Overbought {
			return fmt.Errorf("oversold %v must be below overbought %v", l.Oversold, l.Overbought)
		}
	}
	return nil
}

func (g *Generator) levelsFor(tf market.Timeframe) Thresholds {
	if override, ok := g.cfg.TimeframeLevels[tf]; ok {
		return override
	}
	return g.cfg.Levels
}

// propose offsets the latest close by the configured pip distances:
// stop beyond entry against the trade, target beyond entry in its
// favor.
func (g *Generator) propose(dir broker.Direction, tf market.Timeframe, last market.Bar) Proposal {
	stop := g.cfg.StopPips * g.cfg.PointSize
	target := g.cfg.TargetPips * g.cfg.PointSize

	p := Proposal{
		Direction: dir,
		Price:     last.Close,
		Timeframe: tf,
		Time:      last.Time,
	}
	if dir == broker.Long {
		p.StopLoss = last.Close - stop
		p.TakeProfit = last.Close + target
	} else {
		p.StopLoss = last.Close + stop
		p.TakeProfit = last.Close - target
	}

	g.log.Info("signal",
		zap.Stringer("direction", dir),
		zap.Stringer("timeframe", tf),
		zap.Float64("price", p.Price),
		zap.Float64("sl", p.StopLoss),
		zap.Float64("tp", p.TakeProfit))

	return p
}
