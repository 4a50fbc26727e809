package risk

import "fmt"

// Size computes the position volume that risks riskPct of balance if
// the stop is hit, clamped to the configured size band. stopPips is the
// stop distance in pips and pipValue the monetary value of one pip per
// unit of volume. A zero stop distance must be filtered upstream; it is
// rejected here as well so a malformed proposal can never produce an
// unbounded volume.
func (m *Manager) Size(balance, riskPct, stopPips, pipValue float64) (float64, error) {
	if stopPips <= 0 {
		return 0, fmt.Errorf("risk: stop distance must be positive, got %v pips", stopPips)
	}
	if pipValue <= 0 {
		return 0, fmt.Errorf("risk: pip value must be positive, got %v", pipValue)
	}

	riskAmount := balance * riskPct
	volume := riskAmount / (stopPips * pipValue)

	m.mu.Lock()
	defer m.mu.Unlock()
	if volume > m.limits.MaxPositionSize {
		volume = m.limits.MaxPositionSize
	}
	if volume < m.limits.MinPositionSize {
		volume = m.limits.MinPositionSize
	}
	return volume, nil
}
