package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ErrNoTable marks the absence of a persisted value table. Callers
// treat it as a fresh start; any other load error means a corrupt
// file and must surface instead of silently resetting the table.
var ErrNoTable = errors.New("no value table file")

// #region table-file

// tableFile is the on-disk document. The nested mapping and counters
// round-trip exactly; the hyperparameters are recorded for inspection
// and never restored into a live agent.
type tableFile struct {
	QTable         map[string]map[string]float64 `json:"q_table"`
	TotalUpdates   int                           `json:"total_updates"`
	StatesExplored int                           `json:"states_explored"`
	Alpha          float64                       `json:"alpha"`
	Gamma          float64                       `json:"gamma"`
	Epsilon        float64                       `json:"epsilon"`
}

// #endregion table-file

// #region save

// Save serializes the table to the configured path.
func (a *Agent) Save() error {
	if a.cfg.TablePath == "" {
		return fmt.Errorf("save value table: no path configured")
	}

	doc := tableFile{
		QTable:         a.table,
		TotalUpdates:   a.totalUpdates,
		StatesExplored: len(a.statesExplored),
		Alpha:          a.cfg.Alpha,
		Gamma:          a.cfg.Gamma,
		Epsilon:        a.cfg.Epsilon,
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal value table: %w", err)
	}

	if dir := filepath.Dir(a.cfg.TablePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create table dir: %w", err)
		}
	}

	tmp := a.cfg.TablePath + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write value table: %w", err)
	}
	if err := os.Rename(tmp, a.cfg.TablePath); err != nil {
		return fmt.Errorf("replace value table: %w", err)
	}
	return nil
}

// #endregion save

// #region load

// Load reads the table from the configured path. Returns ErrNoTable
// when the file does not exist; fails loudly on malformed content.
func (a *Agent) Load() error {
	if a.cfg.TablePath == "" {
		return ErrNoTable
	}

	raw, err := os.ReadFile(a.cfg.TablePath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoTable, a.cfg.TablePath)
	}
	if err != nil {
		return fmt.Errorf("read value table: %w", err)
	}

	var doc tableFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("corrupt value table %s: %w", a.cfg.TablePath, err)
	}
	if doc.TotalUpdates < 0 {
		return fmt.Errorf("corrupt value table %s: negative update count %d", a.cfg.TablePath, doc.TotalUpdates)
	}
	if doc.QTable == nil {
		doc.QTable = make(map[string]map[string]float64)
	}

	a.table = doc.QTable
	a.totalUpdates = doc.TotalUpdates

	// The persisted hyperparameters are informational: the live
	// configuration keeps the rates it was constructed with. States
	// explored are rebuilt from the table keys.
	a.statesExplored = make(map[string]struct{}, len(a.table))
	for key := range a.table {
		a.statesExplored[key] = struct{}{}
	}

	log.Printf("[AGENT] loaded value table: %d states, %d updates", len(a.table), a.totalUpdates)
	return nil
}

// #endregion load
