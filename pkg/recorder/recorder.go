// Package recorder writes the per-flight CSV log.
package recorder

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/itohio/thruststand/pkg/clock"
	"github.com/itohio/thruststand/pkg/meter"
)

// Header is the first row of every flight log.
var Header = []string{"Time", "Thrust", "Height", "Pressure", "Temperature", "Stability"}

// maxFiles bounds the search for a free log name.
const maxFiles = 100000

// Row is one parsed flight log row.
type Row struct {
	Time        time.Duration
	Thrust      float64
	Height      float64
	Pressure    float64
	Temperature float64
	Stability   float64
}

// Recorder appends snapshots to a CSV file and flushes it periodically.
type Recorder struct {
	clock         clock.Clock
	flushInterval time.Duration

	name string

	mu        sync.Mutex
	file      *os.File
	buf       *bufio.Writer
	w         *csv.Writer
	lastFlush time.Time
	record    []string
}

// Open creates <dir>/<prefix><n>.csv for the smallest n not already taken
// and writes the header. Existing logs are never overwritten.
func Open(dir, prefix string, clk clock.Clock, flushInterval time.Duration) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	var file *os.File
	for n := 0; n < maxFiles; n++ {
		name := filepath.Join(dir, prefix+strconv.Itoa(n)+".csv")
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create flight log %s: %w", name, err)
		}
		file = f
		break
	}
	if file == nil {
		return nil, fmt.Errorf("no free flight log name in %s", dir)
	}

	buf := bufio.NewWriter(file)
	r := &Recorder{
		clock:         clk,
		flushInterval: flushInterval,
		name:          file.Name(),
		file:          file,
		buf:           buf,
		w:             csv.NewWriter(buf),
		lastFlush:     clk.Now(),
		record:        make([]string, len(Header)),
	}

	if err := r.w.Write(Header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := r.flush(); err != nil {
		file.Close()
		return nil, err
	}

	log.Printf("Recording flight to %s", file.Name())
	return r, nil
}

// Name returns the path of the log file. It stays valid after Close.
func (r *Recorder) Name() string {
	return r.name
}

// Append buffers one row for s. The buffer is flushed once flushInterval
// has elapsed since the previous flush.
func (r *Recorder) Append(s meter.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return fmt.Errorf("recorder closed")
	}

	r.record[0] = strconv.FormatInt(s.Time.Milliseconds(), 10)
	r.record[1] = formatFloat(s.Thrust)
	r.record[2] = formatFloat(s.Height)
	r.record[3] = formatFloat(s.Pressure)
	r.record[4] = formatFloat(s.Temperature)
	r.record[5] = formatFloat(s.Stability)

	if err := r.w.Write(r.record); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	if r.clock.Since(r.lastFlush) >= r.flushInterval {
		return r.flush()
	}
	return nil
}

// Flush writes buffered rows to disk.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.flush()
}

func (r *Recorder) flush() error {
	r.lastFlush = r.clock.Now()
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("failed to flush flight log: %w", err)
	}
	if err := r.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush flight log: %w", err)
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync flight log: %w", err)
	}
	return nil
}

// Close flushes and closes the log.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}

	flushErr := r.flush()
	closeErr := r.file.Close()
	r.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ParseRow parses one data row written by Append.
func ParseRow(record []string) (Row, error) {
	if len(record) != len(Header) {
		return Row{}, fmt.Errorf("invalid row: expected %d fields, got %d", len(Header), len(record))
	}

	ms, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("invalid time: %w", err)
	}

	var vals [5]float64
	for i := range vals {
		vals[i], err = strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return Row{}, fmt.Errorf("invalid %s: %w", Header[i+1], err)
		}
	}

	return Row{
		Time:        time.Duration(ms) * time.Millisecond,
		Thrust:      vals[0],
		Height:      vals[1],
		Pressure:    vals[2],
		Temperature: vals[3],
		Stability:   vals[4],
	}, nil
}

// ReadFile parses a complete flight log.
func ReadFile(name string) ([]Row, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open flight log: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read flight log: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("flight log %s is empty", name)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := ParseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
