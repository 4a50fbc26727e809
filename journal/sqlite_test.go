package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantfold/confluence/broker"
	"github.com/quantfold/confluence/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrade() TradeRecord {
	return TradeRecord{
		TradeID:    "trade-1",
		Instrument: "XAUUSD",
		Direction:  broker.Long,
		Timeframe:  market.M5,
		Volume:     2,
		EntryPrice: 1000,
		ExitPrice:  950,
		StopLoss:   950,
		TakeProfit: 1100,
		OpenTime:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		CloseTime:  time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		Profit:     -100,
		Reason:     "STOP",
	}
}

func TestSQLiteJournalRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	assert.NotEmpty(t, j.RunID())

	require.NoError(t, j.RecordTrade(sampleTrade()))
	require.NoError(t, j.RecordEquity(EquityPoint{
		Time:    time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		Balance: 9900,
	}))
	require.NoError(t, j.RecordSummary(Summary{
		TotalTrades:  1,
		LosingTrades: 1,
		TotalLoss:    100,
		FinalBalance: 9900,
	}))
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var direction, reason, runID string
	var profit float64
	require.NoError(t, db.QueryRow(
		`SELECT run_id, direction, reason, profit FROM trades WHERE trade_id = ?`,
		"trade-1",
	).Scan(&runID, &direction, &reason, &profit))
	assert.Equal(t, j.RunID(), runID)
	assert.Equal(t, "LONG", direction)
	assert.Equal(t, "STOP", reason)
	assert.InDelta(t, -100, profit, 1e-9)

	var points int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM equity WHERE run_id = ?`, j.RunID(),
	).Scan(&points))
	assert.Equal(t, 1, points)

	var finalBalance float64
	require.NoError(t, db.QueryRow(
		`SELECT final_balance FROM summaries WHERE run_id = ?`, j.RunID(),
	).Scan(&finalBalance))
	assert.InDelta(t, 9900, finalBalance, 1e-9)
}

func TestSQLiteJournalSeparateRunsShareFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.db")

	a, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	assert.NotEqual(t, a.RunID(), b.RunID())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 2, runs)
}
