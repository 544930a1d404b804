// Package status publishes a live training snapshot as a small JSON
// document other processes can poll.
package status

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Document is the published snapshot.
type Document struct {
	RunID          string   `json:"run_id"`
	UpdatedAt      string   `json:"updated_at"`
	Step           int      `json:"step"`
	Episode        int      `json:"episode"`
	MapID          int      `json:"map_id"`
	Location       string   `json:"location"`
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Badges         int      `json:"badges"`
	TotalReward    float64  `json:"total_reward"`
	LastReward     float64  `json:"last_reward"`
	LastAction     string   `json:"last_action"`
	RecentActions  []string `json:"recent_actions,omitempty"`
	StatesExplored int      `json:"states_explored"`
	CoordsSeen     int      `json:"coords_seen"`
	UniqueScreens  int      `json:"unique_screens"`
	DiedCount      int      `json:"died_count"`
}

// #region writer

// Writer maintains the status file. Empty path disables publishing.
type Writer struct {
	path string
}

// NewWriter returns a writer targeting the given path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write replaces the status document atomically. A poller never sees a
// partially written file.
func (w *Writer) Write(doc Document) error {
	if w.path == "" {
		return nil
	}
	if doc.UpdatedAt == "" {
		doc.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create status dir: %w", err)
		}
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replace status: %w", err)
	}
	return nil
}

// #endregion writer

// #region read

// Read loads a status document from disk.
func Read(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read status: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("parse status: %w", err)
	}
	return doc, nil
}

// #endregion read
