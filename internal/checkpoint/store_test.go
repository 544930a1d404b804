package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T, keep int) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.KeepBest = keep
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, dir
}

func listDirs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestShouldCheckpointInterval(t *testing.T) {
	s, _ := testStore(t, 3)
	s.cfg.SaveInterval = 1000

	if s.ShouldCheckpoint(999) {
		t.Fatal("interval not yet elapsed")
	}
	if !s.ShouldCheckpoint(1000) {
		t.Fatal("interval elapsed at exactly SaveInterval steps")
	}

	// After a save the distance resets.
	if _, err := s.Save(1000, 1, 10.0, Artifacts{}, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.ShouldCheckpoint(1500) {
		t.Fatal("interval must count from the last save")
	}
	if !s.ShouldCheckpoint(2000) {
		t.Fatal("second interval elapsed")
	}
}

func TestSaveWritesBundle(t *testing.T) {
	s, dir := testStore(t, 3)

	table := filepath.Join(dir, "q_table.json")
	if err := os.WriteFile(table, []byte(`{"q_table":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ck, err := s.Save(1000, 2, 42.5, Artifacts{
		ValueTablePath: table,
		Stats:          map[string]any{"total_reward": 42.5},
	}, false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(ck.Path), "checkpoint_step1000_ep2_") {
		t.Fatalf("unexpected checkpoint name: %s", ck.Path)
	}
	for _, f := range []string{"metadata.json", "q_table.json", "stats.json"} {
		if _, err := os.Stat(filepath.Join(ck.Path, f)); err != nil {
			t.Fatalf("missing bundle file %s: %v", f, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(ck.Path, "metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	var meta Checkpoint
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.Step != 1000 || meta.Episode != 2 || meta.Score != 42.5 || meta.IsBest {
		t.Fatalf("metadata mismatch: %+v", meta)
	}
}

func TestRetentionKeepsTopK(t *testing.T) {
	s, dir := testStore(t, 2)

	// Three positive-score checkpoints; the lowest must be evicted.
	var paths []string
	for i, score := range []float64{10, 30, 20} {
		ck, err := s.Save(1000*(i+1), i, score, Artifacts{}, false)
		if err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
		paths = append(paths, ck.Path)
	}

	if _, err := os.Stat(paths[0]); !os.IsNotExist(err) {
		t.Fatal("lowest-scoring checkpoint must be removed")
	}
	for _, p := range paths[1:] {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("top-K checkpoint removed: %s", p)
		}
	}
	if got := len(listDirs(t, dir)); got != 2 {
		t.Fatalf("expected 2 checkpoint dirs, got %d", got)
	}
	if s.Best() != paths[1] {
		t.Fatalf("Best() = %s, want %s", s.Best(), paths[1])
	}
}

func TestBestCheckpointsSurviveEviction(t *testing.T) {
	s, _ := testStore(t, 1)

	best, err := s.SaveBest(100, 1, 1.0, Artifacts{}, "first_badge")
	if err != nil {
		t.Fatalf("SaveBest: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(best.Path), "best_first_badge_") {
		t.Fatalf("unexpected best name: %s", best.Path)
	}

	// Higher-scoring regular checkpoints push the best entry past the
	// retention rank, but its files must stay on disk.
	for i, score := range []float64{50, 60} {
		if _, err := s.Save(1000*(i+2), i, score, Artifacts{}, false); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	if _, err := os.Stat(best.Path); err != nil {
		t.Fatalf("best checkpoint evicted: %v", err)
	}
}

func TestZeroScoreNotTracked(t *testing.T) {
	s, _ := testStore(t, 2)

	if _, err := s.Save(1000, 0, 0, Artifacts{}, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := s.Stats().TrackedBest; got != 0 {
		t.Fatalf("zero-score checkpoint tracked: %d", got)
	}
	if s.Best() != "" {
		t.Fatal("Best() must be empty with nothing tracked")
	}
}

func TestDisabledStoreIsInert(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(filepath.Join(dir, "ckpt"))
	cfg.Enabled = false
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if s.ShouldCheckpoint(1_000_000) {
		t.Fatal("disabled store must never request a checkpoint")
	}
	ck, err := s.Save(1000, 1, 99.0, Artifacts{}, false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ck.Path != "" {
		t.Fatal("disabled store must not write")
	}
	if _, err := os.Stat(cfg.Dir); !os.IsNotExist(err) {
		t.Fatal("disabled store must not create its directory")
	}
}

func TestLatestFindsNewestBundle(t *testing.T) {
	s, dir := testStore(t, 3)

	if s.Latest() != "" {
		t.Fatal("empty store has no latest checkpoint")
	}

	first, err := s.Save(1000, 1, 5.0, Artifacts{}, false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := s.Save(2000, 2, 6.0, Artifacts{}, false)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A stray directory without metadata is not a checkpoint.
	if err := os.MkdirAll(filepath.Join(dir, "zzz_not_a_checkpoint"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := s.Latest()
	if got != first.Path && got != second.Path {
		t.Fatalf("Latest() = %s, want a checkpoint dir", got)
	}
	if strings.Contains(got, "zzz_not_a_checkpoint") {
		t.Fatal("Latest() picked a non-checkpoint directory")
	}
}
