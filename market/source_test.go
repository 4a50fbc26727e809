package market

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `time,open,high,low,close,volume
2024-03-01T00:00:00Z,100,101,99,100.5,12
2024-03-01T00:05:00Z,100.5,102,100,101.5,8
2024-03-01T00:10:00Z,101.5,103,101,102.5,9
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirSourceLoadCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "M5.csv", sampleCSV)

	s, err := DirSource{Dir: dir, Instrument: "XAUUSD"}.Load(M5)
	require.NoError(t, err)

	assert.Equal(t, "XAUUSD", s.Instrument)
	assert.Equal(t, M5, s.Timeframe)
	require.Equal(t, 3, s.Len())

	first := s.Bars[0]
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 100.0, first.Open)
	assert.Equal(t, 101.0, first.High)
	assert.Equal(t, 99.0, first.Low)
	assert.Equal(t, 100.5, first.Close)
	assert.Equal(t, 12.0, first.Volume)
}

func TestDirSourceLoadGzip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "H1.csv.gz"))
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	s, err := DirSource{Dir: dir, Instrument: "XAUUSD"}.Load(H1)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, H1, s.Timeframe)
}

func TestDirSourceMissingFile(t *testing.T) {
	t.Parallel()

	_, err := DirSource{Dir: t.TempDir(), Instrument: "XAUUSD"}.Load(M15)
	assert.ErrorIs(t, err, ErrNoSeries)
}

func TestDirSourceStatFailureIsNotNoSeries(t *testing.T) {
	t.Parallel()

	// A cache dir that is actually a regular file makes every stat fail
	// with ENOTDIR. That is an I/O problem, not an empty cache, and must
	// not be swallowed as ErrNoSeries.
	notADir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o644))

	_, err := DirSource{Dir: notADir, Instrument: "XAUUSD"}.Load(M15)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSeries)
}

func TestDirSourceSortsAndDeduplicates(t *testing.T) {
	t.Parallel()

	// Unsorted rows plus a duplicate timestamp; keep-first on the dup.
	csv := `2024-03-01T00:10:00Z,3,3,3,3
2024-03-01T00:00:00Z,1,1,1,1
2024-03-01T00:05:00Z,2,2,2,2
2024-03-01T00:05:00Z,9,9,9,9
`
	dir := t.TempDir()
	writeFile(t, dir, "M5.csv", csv)

	s, err := DirSource{Dir: dir, Instrument: "XAUUSD"}.Load(M5)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
}

func TestDirSourceRejectsMalformedRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		csv  string
	}{
		{"short row", "2024-03-01T00:00:00Z,100,101\n"},
		{"bad time", "not-a-time,100,101,99,100.5\n"},
		{"bad price", "2024-03-01T00:00:00Z,100,oops,99,100.5\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeFile(t, dir, "M5.csv", tt.csv)
			_, err := DirSource{Dir: dir, Instrument: "XAUUSD"}.Load(M5)
			assert.Error(t, err)
		})
	}
}

func TestDirSourceHeaderOptional(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "M5.csv", "2024-03-01T00:00:00Z,1,1,1,1\n")

	s, err := DirSource{Dir: dir, Instrument: "XAUUSD"}.Load(M5)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}
