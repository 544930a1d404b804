package agent

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pokerushai/go-trainer/internal/game"
)

var testActions = []string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B"}

func stateOn(mapID, badges int) game.Snapshot {
	return game.Snapshot{MapID: mapID, Badges: badges, X: 3, Y: 7}
}

func TestStateKeyIgnoresCoordinates(t *testing.T) {
	a := game.Snapshot{MapID: 1, Badges: 2, X: 10, Y: 20}
	b := game.Snapshot{MapID: 1, Badges: 2, X: 99, Y: 1}
	if StateKey(a) != StateKey(b) {
		t.Fatalf("keys differ: %s vs %s", StateKey(a), StateKey(b))
	}
	c := game.Snapshot{MapID: 1, Badges: 3}
	if StateKey(a) == StateKey(c) {
		t.Fatal("badge count must change the key")
	}
}

// End-to-end TD scenario: A --UP/r=1.0--> B (non-terminal), then
// B --UP/r=0.0--> B (terminal). Q(A,UP) must equal alpha x 1.0
// exactly and Q(B,UP) must stay zero.
func TestUpdateTemporalDifference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 0.1
	ag := NewWithSeed(testActions, cfg, 1)

	stateA := stateOn(1, 0)
	stateB := stateOn(2, 0)

	ag.Update(stateA, "UP", 1.0, stateB, false)
	ag.Update(stateB, "UP", 0.0, stateB, true)

	if got := ag.Value(StateKey(stateA), "UP"); got != 0.1 {
		t.Fatalf("expected Q(A,UP) = alpha = 0.1, got %v", got)
	}
	if got := ag.Value(StateKey(stateB), "UP"); got != 0.0 {
		t.Fatalf("expected Q(B,UP) = 0, got %v", got)
	}
}

// The next-state maximum is off-policy: the best recorded value is
// bootstrapped regardless of what runs next.
func TestUpdateBootstrapsNextMax(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = 0.5
	cfg.Gamma = 0.9
	ag := NewWithSeed(testActions, cfg, 1)

	stateA := stateOn(1, 0)
	stateB := stateOn(2, 0)

	ag.table[StateKey(stateB)] = map[string]float64{"DOWN": 2.0, "UP": -1.0}

	ag.Update(stateA, "UP", 1.0, stateB, false)
	// Q = 0 + 0.5 * (1.0 + 0.9*2.0 - 0) = 1.4
	if got := ag.Value(StateKey(stateA), "UP"); math.Abs(got-1.4) > 1e-12 {
		t.Fatalf("expected 1.4, got %v", got)
	}
}

func TestSelectActionGreedyTieBreak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epsilon = 0 // fully greedy
	ag := NewWithSeed(testActions, cfg, 1)

	s := stateOn(5, 0)
	ag.table[StateKey(s)] = map[string]float64{"DOWN": 0.5, "LEFT": 0.5}

	// DOWN and LEFT tie; the first maximal entry in evaluation order
	// of the available slice wins.
	action, wasExploration := ag.SelectAction(s, []string{"DOWN", "LEFT"})
	if wasExploration {
		t.Fatal("greedy selection flagged as exploration")
	}
	if action != "DOWN" {
		t.Fatalf("expected first maximal action DOWN, got %s", action)
	}

	action, _ = ag.SelectAction(s, []string{"LEFT", "DOWN"})
	if action != "LEFT" {
		t.Fatalf("expected first maximal action LEFT, got %s", action)
	}
}

func TestSelectActionUnknownStateExplores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epsilon = 0
	ag := NewWithSeed(testActions, cfg, 1)

	_, wasExploration := ag.SelectAction(stateOn(9, 0), testActions)
	if !wasExploration {
		t.Fatal("unknown state must count as exploration")
	}
}

func TestSelectActionEpsilonAlwaysExplores(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epsilon = 1.0
	ag := NewWithSeed(testActions, cfg, 1)

	s := stateOn(5, 0)
	ag.table[StateKey(s)] = map[string]float64{"DOWN": 5.0}

	for i := 0; i < 20; i++ {
		_, wasExploration := ag.SelectAction(s, testActions)
		if !wasExploration {
			t.Fatal("epsilon=1 must always explore")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TablePath = filepath.Join(dir, "q_table.json")
	ag := NewWithSeed(testActions, cfg, 1)

	ag.Update(stateOn(1, 0), "UP", 1.0, stateOn(2, 0), false)
	ag.Update(stateOn(2, 0), "A", -0.5, stateOn(2, 1), false)
	ag.Update(stateOn(2, 1), "B", 0.25, stateOn(2, 1), true)

	if err := ag.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh := NewWithSeed(testActions, cfg, 2)
	if err := fresh.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for key, actions := range ag.table {
		for action, want := range actions {
			if got := fresh.Value(key, action); got != want {
				t.Fatalf("(%s, %s): %v != %v", key, action, got, want)
			}
		}
	}
	if fresh.totalUpdates != ag.totalUpdates {
		t.Fatalf("update count mismatch: %d != %d", fresh.totalUpdates, ag.totalUpdates)
	}
	if fresh.Stats().StatesExplored != len(ag.table) {
		t.Fatalf("states explored not rebuilt from table keys")
	}
}

// Loading a table must not clobber the rates the agent was constructed
// with: an operator overriding alpha on a resumed run gets that alpha,
// not whatever the old file recorded.
func TestLoadKeepsConfiguredHyperparameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q_table.json")

	oldCfg := DefaultConfig()
	oldCfg.Alpha = 0.1
	oldCfg.Epsilon = 0.2
	oldCfg.TablePath = path
	old := NewWithSeed(testActions, oldCfg, 1)
	old.Update(stateOn(1, 0), "UP", 1.0, stateOn(2, 0), false)
	if err := old.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	newCfg := DefaultConfig()
	newCfg.Alpha = 0.5
	newCfg.Gamma = 0.8
	newCfg.Epsilon = 0.05
	newCfg.TablePath = path
	resumed := NewWithSeed(testActions, newCfg, 2)
	if err := resumed.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if resumed.cfg.Alpha != 0.5 || resumed.cfg.Gamma != 0.8 || resumed.cfg.Epsilon != 0.05 {
		t.Fatalf("configured rates clobbered by load: %+v", resumed.cfg)
	}
	// The table itself still round-trips.
	if got := resumed.Value(StateKey(stateOn(1, 0)), "UP"); got != 0.1 {
		t.Fatalf("table entry lost: %v", got)
	}
}

func TestLoadDistinguishesMissingFromCorrupt(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TablePath = filepath.Join(dir, "q_table.json")
	ag := NewWithSeed(testActions, cfg, 1)

	// Missing file: ErrNoTable, a fresh-start condition.
	if err := ag.Load(); !errors.Is(err, ErrNoTable) {
		t.Fatalf("expected ErrNoTable, got %v", err)
	}

	// Corrupt file: a loud, distinct failure.
	if err := os.WriteFile(cfg.TablePath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := ag.Load()
	if err == nil {
		t.Fatal("expected error for corrupt file")
	}
	if errors.Is(err, ErrNoTable) {
		t.Fatal("corrupt file must not read as missing")
	}

	// Structurally invalid counters are corrupt too.
	if err := os.WriteFile(cfg.TablePath, []byte(`{"q_table":{},"total_updates":-5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ag.Load(); err == nil || errors.Is(err, ErrNoTable) {
		t.Fatalf("expected corrupt error for negative update count, got %v", err)
	}
}

func TestAutoSaveOnInterval(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.TablePath = filepath.Join(dir, "q_table.json")
	cfg.SaveInterval = 2
	ag := NewWithSeed(testActions, cfg, 1)

	ag.Update(stateOn(1, 0), "UP", 1.0, stateOn(1, 0), true)
	if _, err := os.Stat(cfg.TablePath); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("table saved before the interval elapsed")
	}

	ag.Update(stateOn(1, 0), "UP", 1.0, stateOn(1, 0), true)
	if _, err := os.Stat(cfg.TablePath); err != nil {
		t.Fatalf("expected auto-saved table: %v", err)
	}
}
