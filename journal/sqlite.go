package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal persists records to a SQLite database. Every journal
// instance owns one run row, so several runs can share a database file.
type SQLiteJournal struct {
	db    *sql.DB
	runID string
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	runID := uuid.New().String()
	if _, err := db.Exec(`INSERT INTO runs (run_id, created_at) VALUES (?, ?)`,
		runID, time.Now().UTC()); err != nil {
		db.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}

	return &SQLiteJournal{db: db, runID: runID}, nil
}

// RunID returns the id assigned to this journal's run.
func (j *SQLiteJournal) RunID() string { return j.runID }

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, instrument, direction, timeframe, volume,
		 entry_price, exit_price, stop_loss, take_profit,
		 open_time, close_time, profit, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, j.runID, t.Instrument, t.Direction.String(), t.Timeframe.String(),
		t.Volume, t.EntryPrice, t.ExitPrice, t.StopLoss, t.TakeProfit,
		t.OpenTime, t.CloseTime, t.Profit, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (run_id, time, balance) VALUES (?, ?, ?)`,
		j.runID, e.Time, e.Balance,
	)
	return err
}

func (j *SQLiteJournal) RecordSummary(s Summary) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO summaries
		(run_id, total_trades, winning_trades, losing_trades,
		 total_profit, total_loss, win_rate, profit_factor,
		 max_drawdown, final_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, s.TotalTrades, s.WinningTrades, s.LosingTrades,
		s.TotalProfit, s.TotalLoss, s.WinRate, s.ProfitFactor,
		s.MaxDrawdown, s.FinalBalance,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
