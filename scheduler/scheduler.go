// Package scheduler runs the live regime: one lightweight worker per
// active strategy, each on its own poll interval, all funneling through
// one shared risk manager and one shared execution adapter. The
// scheduler re-invokes the same signal/risk/execution pipeline the
// backtest engine uses; it adds timers and serialization, not business
// logic.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/quantfold/confluence/market"
	"github.com/quantfold/confluence/pipeline"
	"github.com/quantfold/confluence/strategy"
	"go.uber.org/zap"
)

// Strategy is what a worker polls: it names the timeframes it wants
// and turns the loaded view into proposals. strategy.Generator
// satisfies it.
type Strategy interface {
	Timeframes() []market.Timeframe
	Evaluate(view map[market.Timeframe]market.Series) []strategy.Proposal
}

// Worker is one polled strategy. Source supplies the latest bar history
// per timeframe on every cycle.
type Worker struct {
	Name     string
	Source   market.BarSource
	Gen      Strategy
	Interval time.Duration
}

// Manager owns the workers and the shared pipeline.
//
// Known limitation, by contract: a stalled terminal call blocks its
// worker indefinitely. There is no per-call timeout; Stop waits for the
// in-flight cycle to finish.
type Manager struct {
	exec    *pipeline.Executor
	balance func() float64
	log     *zap.Logger

	// cycleMu serializes whole evaluate+submit cycles. The risk manager
	// locks per call, but admission-check-then-update must hold across
	// a cycle or two workers could both pass against stale counters.
	cycleMu sync.Mutex

	mu      sync.Mutex
	workers []*Worker
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates a manager. balance supplies the account balance used for
// sizing at the start of each cycle.
func New(exec *pipeline.Executor, balance func() float64, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{exec: exec, balance: balance, log: log}
}

// Add registers a worker. Workers cannot be added while running.
func (m *Manager) Add(w *Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("scheduler: cannot add worker while running")
	}
	if w.Interval <= 0 {
		return fmt.Errorf("scheduler: worker %q needs a positive interval", w.Name)
	}
	m.workers = append(m.workers, w)
	return nil
}

// Start launches one goroutine per worker.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("scheduler: already running")
	}
	if len(m.workers) == 0 {
		return errors.New("scheduler: no workers registered")
	}

	m.stop = make(chan struct{})
	m.running = true

	for _, w := range m.workers {
		m.wg.Add(1)
		go m.run(w)
	}
	m.log.Info("scheduler started", zap.Int("workers", len(m.workers)))
	return nil
}

// Stop signals all workers and joins them. Each worker finishes its
// current cycle before observing the signal; no in-flight placement is
// abandoned mid-request.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	m.log.Info("scheduler stopped")
}

func (m *Manager) run(w *Worker) {
	defer m.wg.Done()
	log := m.log.With(zap.String("worker", w.Name))

	for {
		select {
		case <-m.stop:
			return
		default:
		}

		m.cycle(w, log)

		select {
		case <-m.stop:
			return
		case <-time.After(w.Interval):
		}
	}
}

// cycle loads the latest view, then evaluates and submits under the
// cycle lock so concurrent workers see consistent risk state.
func (m *Manager) cycle(w *Worker, log *zap.Logger) {
	ctx := context.Background()

	view := make(map[market.Timeframe]market.Series)
	for _, tf := range w.Gen.Timeframes() {
		s, err := w.Source.Load(tf)
		if err != nil {
			if errors.Is(err, market.ErrNoSeries) {
				log.Debug("timeframe unavailable", zap.Stringer("timeframe", tf))
			} else {
				log.Warn("load series", zap.Stringer("timeframe", tf), zap.Error(err))
			}
			continue
		}
		view[tf] = s
	}
	if len(view) == 0 {
		log.Debug("cycle skipped: no data")
		return
	}

	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	proposals := w.Gen.Evaluate(view)
	if len(proposals) == 0 {
		return
	}
	m.exec.Submit(ctx, m.balance(), proposals)
}
