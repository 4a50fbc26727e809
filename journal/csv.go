package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSVJournal writes trades and equity to two CSV files and the summary
// to a third. Rows are flushed as they arrive so a crashed run still
// leaves a usable partial ledger.
type CSVJournal struct {
	trades      *csv.Writer
	equity      *csv.Writer
	tf, ef      *os.File
	summaryPath string
}

func NewCSV(tradesPath, equityPath, summaryPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	closeBoth := func() {
		tf.Close()
		ef.Close()
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write([]string{"trade_id", "instrument", "direction", "timeframe",
		"volume", "entry_price", "exit_price", "stop_loss", "take_profit",
		"open_time", "close_time", "profit", "reason"}); err != nil {
		closeBoth()
		return nil, err
	}
	if err := ew.Write([]string{"time", "balance"}); err != nil {
		closeBoth()
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		closeBoth()
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		closeBoth()
		return nil, err
	}

	return &CSVJournal{trades: tw, equity: ew, tf: tf, ef: ef, summaryPath: summaryPath}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write([]string{
		t.TradeID,
		t.Instrument,
		t.Direction.String(),
		t.Timeframe.String(),
		f(t.Volume),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.StopLoss),
		f(t.TakeProfit),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.Profit),
		t.Reason,
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquityPoint) error {
	if err := j.equity.Write([]string{
		e.Time.Format(time.RFC3339),
		f(e.Balance),
	}); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) RecordSummary(s Summary) error {
	sf, err := os.Create(j.summaryPath)
	if err != nil {
		return err
	}
	defer sf.Close()

	w := csv.NewWriter(sf)
	if err := w.Write([]string{"total_trades", "winning_trades", "losing_trades",
		"total_profit", "total_loss", "win_rate", "profit_factor",
		"max_drawdown", "final_balance"}); err != nil {
		return err
	}
	if err := w.Write([]string{
		strconv.Itoa(s.TotalTrades),
		strconv.Itoa(s.WinningTrades),
		strconv.Itoa(s.LosingTrades),
		f(s.TotalProfit),
		f(s.TotalLoss),
		f(s.WinRate),
		f(s.ProfitFactor),
		f(s.MaxDrawdown),
		f(s.FinalBalance),
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
