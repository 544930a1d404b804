// Package checkpoint persists periodic training snapshots and retains
// only the top-scoring ones. Snapshots explicitly flagged best are
// never auto-evicted.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// #region config

// Config tunes checkpoint cadence and retention.
type Config struct {
	// Dir is the checkpoint root directory.
	Dir string
	// SaveInterval is the step distance between automatic saves.
	SaveInterval int
	// KeepBest is the number of top-scoring checkpoints retained.
	KeepBest int
	// Enabled gates the whole subsystem.
	Enabled bool
}

// DefaultConfig returns the reference cadence.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:          dir,
		SaveInterval: 1000,
		KeepBest:     3,
		Enabled:      true,
	}
}

// #endregion config

// #region types

// Artifacts is the bundle written into each checkpoint: an optional
// value-table file to copy and an optional free-form stats payload.
type Artifacts struct {
	ValueTablePath string
	Stats          map[string]any
}

// Checkpoint describes one persisted snapshot.
type Checkpoint struct {
	Step      int     `json:"step"`
	Episode   int     `json:"episode"`
	Timestamp string  `json:"timestamp"`
	Score     float64 `json:"score"`
	IsBest    bool    `json:"is_best"`
	Reason    string  `json:"reason,omitempty"`
	Path      string  `json:"-"`
}

// scored pairs a score with a weak reference to the on-disk artifact.
// The store never holds artifact contents in memory.
type scored struct {
	score  float64
	path   string
	isBest bool
}

// #endregion types

// #region store

// Store manages checkpoint persistence and retention. Owned by the
// training loop; not safe for concurrent use.
type Store struct {
	cfg      Config
	lastStep int
	best     []scored
}

// NewStore creates the checkpoint directory and an empty store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint dir: %w", err)
		}
		log.Printf("[CKPT] checkpoints enabled: %s (every %d steps)", cfg.Dir, cfg.SaveInterval)
	}
	return &Store{cfg: cfg}, nil
}

// ShouldCheckpoint is a fixed-interval predicate on steps elapsed
// since the last save.
func (s *Store) ShouldCheckpoint(currentStep int) bool {
	if !s.cfg.Enabled {
		return false
	}
	return currentStep-s.lastStep >= s.cfg.SaveInterval
}

// #endregion store

// #region save

// Save writes a full checkpoint bundle to a uniquely named directory
// and applies the retention policy. Cleanup failures are reported, not
// propagated — a failed eviction must not fail a successful save.
func (s *Store) Save(step, episode int, score float64, art Artifacts, isBest bool) (Checkpoint, error) {
	name := fmt.Sprintf("checkpoint_step%d_ep%d_%s", step, episode, time.Now().Format("20060102_150405"))
	return s.write(name, step, episode, score, art, isBest, "")
}

// SaveBest writes a checkpoint explicitly flagged best, with a reason
// carried in its name and metadata.
func (s *Store) SaveBest(step, episode int, score float64, art Artifacts, reason string) (Checkpoint, error) {
	name := fmt.Sprintf("best_%s_step%d_%s", reason, step, time.Now().Format("20060102_150405"))
	return s.write(name, step, episode, score, art, true, reason)
}

func (s *Store) write(name string, step, episode int, score float64, art Artifacts, isBest bool, reason string) (Checkpoint, error) {
	if !s.cfg.Enabled {
		return Checkpoint{}, nil
	}

	dir := filepath.Join(s.cfg.Dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Checkpoint{}, fmt.Errorf("create checkpoint %s: %w", name, err)
	}

	if art.ValueTablePath != "" {
		if err := copyFile(art.ValueTablePath, filepath.Join(dir, "q_table.json")); err != nil {
			return Checkpoint{}, fmt.Errorf("copy value table: %w", err)
		}
	}

	if art.Stats != nil {
		if err := writeJSON(filepath.Join(dir, "stats.json"), art.Stats); err != nil {
			return Checkpoint{}, fmt.Errorf("write stats: %w", err)
		}
	}

	ck := Checkpoint{
		Step:      step,
		Episode:   episode,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Score:     score,
		IsBest:    isBest,
		Reason:    reason,
		Path:      dir,
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), ck); err != nil {
		return Checkpoint{}, fmt.Errorf("write metadata: %w", err)
	}

	s.lastStep = step

	if isBest || score > 0 {
		s.retain(scored{score: score, path: dir, isBest: isBest})
	}

	log.Printf("[CKPT] saved %s (score=%.1f best=%v)", name, score, isBest)
	return ck, nil
}

// #endregion save

// #region retention

// retain tracks the new checkpoint and evicts entries past the top-K
// rank. Entries flagged best keep their files regardless of rank.
// Only best-flagged or positive-score saves are tracked at all, so the
// at-most-K bound applies to those; zero-score checkpoints stay on
// disk untracked.
func (s *Store) retain(entry scored) {
	s.best = append(s.best, entry)
	sort.SliceStable(s.best, func(i, j int) bool {
		return s.best[i].score > s.best[j].score
	})

	if len(s.best) <= s.cfg.KeepBest {
		return
	}

	for _, old := range s.best[s.cfg.KeepBest:] {
		if old.isBest || strings.HasPrefix(filepath.Base(old.path), "best_") {
			continue
		}
		if err := os.RemoveAll(old.path); err != nil {
			log.Printf("[CKPT] failed to remove %s: %v", old.path, err)
			continue
		}
		log.Printf("[CKPT] removed old checkpoint: %s", filepath.Base(old.path))
	}
	s.best = s.best[:s.cfg.KeepBest]
}

// #endregion retention

// #region lookup

// Latest returns the most recently modified checkpoint directory, or
// empty when none exist.
func (s *Store) Latest() string {
	entries, err := os.ReadDir(s.cfg.Dir)
	if err != nil {
		return ""
	}

	latest := ""
	var latestMod time.Time
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.cfg.Dir, e.Name())
		if _, err := os.Stat(filepath.Join(dir, "metadata.json")); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = dir
			latestMod = info.ModTime()
		}
	}
	return latest
}

// Best returns the highest-scoring tracked checkpoint directory, or
// empty when none are tracked.
func (s *Store) Best() string {
	if len(s.best) == 0 {
		return ""
	}
	return s.best[0].path
}

// Stats summarizes the store.
type Stats struct {
	Enabled      bool    `json:"enabled"`
	Dir          string  `json:"dir"`
	SaveInterval int     `json:"save_interval"`
	LastStep     int     `json:"last_checkpoint_step"`
	TrackedBest  int     `json:"best_count"`
	BestScore    float64 `json:"best_score"`
}

// Stats returns current checkpoint statistics.
func (s *Store) Stats() Stats {
	st := Stats{
		Enabled:      s.cfg.Enabled,
		Dir:          s.cfg.Dir,
		SaveInterval: s.cfg.SaveInterval,
		LastStep:     s.lastStep,
		TrackedBest:  len(s.best),
	}
	if len(s.best) > 0 {
		st.BestScore = s.best[0].score
	}
	return st
}

// #endregion lookup

// #region helpers

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// #endregion helpers
