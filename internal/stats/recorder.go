// Package stats accumulates per-step training metrics and flushes
// them to a CSV log in buffered batches.
package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// #region config

// Config tunes the CSV log location and flush cadence.
type Config struct {
	// Path is the CSV file; empty disables writing.
	Path string
	// FlushInterval flushes the buffer every N rows.
	FlushInterval int
}

// DefaultConfig returns the reference cadence.
func DefaultConfig(path string) Config {
	return Config{Path: path, FlushInterval: 50}
}

// #endregion config

// #region row

var header = []string{
	"timestamp", "step", "episode", "map_id", "pos_x", "pos_y",
	"action", "was_exploration", "reward", "total_reward",
	"badges", "states_explored", "unique_screens",
}

// Row is one step's metrics.
type Row struct {
	Timestamp      time.Time
	Step           int
	Episode        int
	MapID          int
	X, Y           int
	Action         string
	WasExploration bool
	Reward         float64
	TotalReward    float64
	Badges         int
	StatesExplored int
	UniqueScreens  int
}

func (r Row) record() []string {
	exploration := "0"
	if r.WasExploration {
		exploration = "1"
	}
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Step),
		strconv.Itoa(r.Episode),
		strconv.Itoa(r.MapID),
		strconv.Itoa(r.X),
		strconv.Itoa(r.Y),
		r.Action,
		exploration,
		strconv.FormatFloat(r.Reward, 'f', 4, 64),
		strconv.FormatFloat(r.TotalReward, 'f', 4, 64),
		strconv.Itoa(r.Badges),
		strconv.Itoa(r.StatesExplored),
		strconv.Itoa(r.UniqueScreens),
	}
}

// #endregion row

// #region recorder

// Recorder buffers metric rows and writes them to a CSV file. Owned by
// the training loop; not safe for concurrent use.
type Recorder struct {
	cfg     Config
	file    *os.File
	w       *csv.Writer
	pending int
	rows    int
}

// NewRecorder opens (or creates) the CSV log. The header is written
// only when the file starts empty, so restarted runs append cleanly.
func NewRecorder(cfg Config) (*Recorder, error) {
	r := &Recorder{cfg: cfg}
	if cfg.Path == "" {
		return r, nil
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create stats dir: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open stats log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat stats log: %w", err)
	}

	r.file = f
	r.w = csv.NewWriter(f)
	if info.Size() == 0 {
		if err := r.w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
		r.w.Flush()
	}
	return r, nil
}

// Record buffers one row, flushing at the configured interval.
func (r *Recorder) Record(row Row) error {
	r.rows++
	if r.w == nil {
		return nil
	}
	if row.Timestamp.IsZero() {
		row.Timestamp = time.Now()
	}
	if err := r.w.Write(row.record()); err != nil {
		return fmt.Errorf("write stats row: %w", err)
	}
	r.pending++
	if r.cfg.FlushInterval > 0 && r.pending >= r.cfg.FlushInterval {
		return r.Flush()
	}
	return nil
}

// Flush forces buffered rows to disk.
func (r *Recorder) Flush() error {
	if r.w == nil {
		return nil
	}
	r.w.Flush()
	r.pending = 0
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("flush stats: %w", err)
	}
	return nil
}

// Rows returns the number of rows recorded this session.
func (r *Recorder) Rows() int {
	return r.rows
}

// Close flushes and releases the log file.
func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	if err := r.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// #endregion recorder
