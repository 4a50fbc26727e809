package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalWritesLedger(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")
	summaryPath := filepath.Join(dir, "summary.csv")

	j, err := NewCSV(tradesPath, equityPath, summaryPath)
	require.NoError(t, err)

	require.NoError(t, j.RecordTrade(sampleTrade()))
	require.NoError(t, j.RecordEquity(EquityPoint{
		Time:    time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC),
		Balance: 9900,
	}))
	require.NoError(t, j.RecordSummary(Summary{
		TotalTrades:  1,
		LosingTrades: 1,
		TotalLoss:    100,
		WinRate:      0,
		FinalBalance: 9900,
	}))
	require.NoError(t, j.Close())

	trades := readCSV(t, tradesPath)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade_id", trades[0][0])
	assert.Equal(t, "trade-1", trades[1][0])
	assert.Equal(t, "LONG", trades[1][2])
	assert.Equal(t, "M5", trades[1][3])
	assert.Equal(t, "STOP", trades[1][12])

	equity := readCSV(t, equityPath)
	require.Len(t, equity, 2)
	assert.Equal(t, "2024-03-01T09:15:00Z", equity[1][0])
	assert.Equal(t, "9900.000000", equity[1][1])

	summary := readCSV(t, summaryPath)
	require.Len(t, summary, 2)
	assert.Equal(t, "total_trades", summary[0][0])
	assert.Equal(t, "1", summary[1][0])
	assert.Equal(t, "9900.000000", summary[1][8])
}

func TestNewCSVHeaderWriteFailure(t *testing.T) {
	t.Parallel()

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("requires /dev/full")
	}

	// The trades header flush hits ENOSPC; the constructor must fail
	// without leaking either opened file.
	dir := t.TempDir()
	_, err := NewCSV("/dev/full",
		filepath.Join(dir, "equity.csv"),
		filepath.Join(dir, "summary.csv"))
	assert.Error(t, err)
}

func TestCSVJournalFlushesPerRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(
		filepath.Join(dir, "trades.csv"),
		filepath.Join(dir, "equity.csv"),
		filepath.Join(dir, "summary.csv"),
	)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.RecordTrade(sampleTrade()))

	// Visible on disk before Close; a crashed run keeps its ledger.
	rows := readCSV(t, filepath.Join(dir, "trades.csv"))
	assert.Len(t, rows, 2)
}
