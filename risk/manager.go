// Package risk gatekeeps trade proposals against exposure and loss
// limits and sizes positions from account risk. The manager is a pure
// query/update surface: counters move only when a caller reports an
// open or a close, and the daily window resets only on an explicit
// ResetDaily call.
package risk

import (
	"sync"

	"go.uber.org/zap"
)

// Limits are the configured admission bounds.
type Limits struct {
	MaxOpenPositions int
	MaxDailyLoss     float64
	MinPositionSize  float64
	MaxPositionSize  float64
}

// Manager owns the mutable risk state. One instance may be shared by
// several live workers; every method takes the internal lock, and the
// scheduler additionally serializes whole check-then-update cycles so
// two workers cannot both pass admission against stale counters.
type Manager struct {
	mu        sync.Mutex
	limits    Limits
	open      int
	dailyLoss float64
	log       *zap.Logger
}

func NewManager(limits Limits, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{limits: limits, log: log}
}

// CanOpen reports whether a position of the given volume may be opened
// now. The check is advisory and reserves nothing: after a successful
// open the caller must call RegisterOpen before evaluating the next
// proposal.
func (m *Manager) CanOpen(volume, price float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open >= m.limits.MaxOpenPositions {
		m.log.Debug("admission rejected: max open positions",
			zap.Int("open", m.open),
			zap.Int("max", m.limits.MaxOpenPositions))
		return false
	}
	if volume > m.limits.MaxPositionSize {
		m.log.Debug("admission rejected: volume above maximum",
			zap.Float64("volume", volume),
			zap.Float64("max", m.limits.MaxPositionSize))
		return false
	}
	if volume < m.limits.MinPositionSize {
		m.log.Debug("admission rejected: volume below minimum",
			zap.Float64("volume", volume),
			zap.Float64("min", m.limits.MinPositionSize))
		return false
	}

	// Conservative worst-case estimate: a 1% adverse move on the full
	// notional, counted against the daily loss budget.
	potentialLoss := volume * price * 0.01
	if m.dailyLoss+potentialLoss > m.limits.MaxDailyLoss {
		m.log.Debug("admission rejected: daily loss limit",
			zap.Float64("daily_loss", m.dailyLoss),
			zap.Float64("potential", potentialLoss),
			zap.Float64("max", m.limits.MaxDailyLoss))
		return false
	}
	return true
}

// RegisterOpen records a successfully opened position.
func (m *Manager) RegisterOpen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open++
}

// RegisterClose records a closed position and folds a losing trade into
// the daily loss accumulator.
func (m *Manager) RegisterClose(profit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open > 0 {
		m.open--
	}
	if profit < 0 {
		m.dailyLoss += -profit
	}
}

// ResetDaily clears the daily loss window. Called by the owner of the
// clock on a day boundary; the manager itself runs no timer.
func (m *Manager) ResetDaily() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyLoss = 0
}

// OpenPositions returns the current open-position count.
func (m *Manager) OpenPositions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// DailyLoss returns the realized loss accumulated since the last reset.
func (m *Manager) DailyLoss() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyLoss
}
