package market

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// ErrNoSeries reports that a source has no data for the requested
// timeframe. Callers skip the dependent computation; it is never fatal.
var ErrNoSeries = errors.New("no series for timeframe")

// BarSource loads bar history per timeframe. Implementations must hand
// back chronologically sorted, deduplicated bars.
type BarSource interface {
	Load(tf Timeframe) (Series, error)
}

// DirSource reads bar files from a directory cache, one file per
// timeframe: <dir>/<TF>.csv, optionally compressed as .csv.gz, .csv.xz
// or .csv.lzma. Row format: time,open,high,low,close[,volume] with an
// optional header, time in RFC3339.
type DirSource struct {
	Dir        string
	Instrument string
}

var sourceExtensions = []string{".csv", ".csv.gz", ".csv.xz", ".csv.lzma"}

// Load reads the series for tf. A missing file maps to ErrNoSeries;
// any other stat failure is a real I/O problem and surfaces as-is.
func (d DirSource) Load(tf Timeframe) (Series, error) {
	for _, ext := range sourceExtensions {
		path := filepath.Join(d.Dir, tf.String()+ext)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Series{}, fmt.Errorf("stat %s: %w", path, err)
		}
		return d.loadFile(path, tf)
	}
	return Series{}, fmt.Errorf("%s in %s: %w", tf, d.Dir, ErrNoSeries)
}

func (d DirSource) loadFile(path string, tf Timeframe) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return Series{}, fmt.Errorf("gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(path, ".xz"):
		zr, err := xz.NewReader(f)
		if err != nil {
			return Series{}, fmt.Errorf("xz %s: %w", path, err)
		}
		r = zr
	case strings.HasSuffix(path, ".lzma"):
		zr, err := lzma.NewReader(f)
		if err != nil {
			return Series{}, fmt.Errorf("lzma %s: %w", path, err)
		}
		r = zr
	}

	bars, err := readBars(r)
	if err != nil {
		return Series{}, fmt.Errorf("read %s: %w", path, err)
	}

	// Files in the cache are usually sorted already, but the contract
	// guarantees it, so enforce: sort by time, keep-first on duplicates.
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	s := Series{Instrument: d.Instrument, Timeframe: tf}
	for _, b := range bars {
		if n := len(s.Bars); n > 0 && !b.Time.After(s.Bars[n-1].Time) {
			continue // duplicate timestamp
		}
		s.Bars = append(s.Bars, b)
	}
	return s, nil
}

func readBars(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var bars []Bar
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue // header
		}
		if len(row) < 5 {
			return nil, fmt.Errorf("line %d: need at least time,open,high,low,close: %v", line, row)
		}

		b, err := parseBar(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

func parseBar(row []string) (Bar, error) {
	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t2, err2 := time.Parse(time.RFC3339Nano, ts)
		if err2 != nil {
			return Bar{}, fmt.Errorf("bad time %q: %w", ts, err)
		}
		t = t2
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad field %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	b := Bar{Time: t.UTC(), Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if len(row) > 5 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64); err == nil {
			b.Volume = v
		}
	}
	return b, nil
}
