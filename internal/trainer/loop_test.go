package trainer

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pokerushai/go-trainer/internal/agent"
	"github.com/pokerushai/go-trainer/internal/checkpoint"
	"github.com/pokerushai/go-trainer/internal/explore"
	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/novelty"
	"github.com/pokerushai/go-trainer/internal/reward"
	"github.com/pokerushai/go-trainer/internal/runlog"
	"github.com/pokerushai/go-trainer/internal/stats"
	"github.com/pokerushai/go-trainer/internal/status"
)

// testScript walks from Pallet Town onto Route 1 and earns a badge on
// the final step.
func testScript() game.Script {
	return game.Script{
		Edition: "red",
		Steps: []game.ScriptStep{
			{Snapshot: game.Snapshot{Location: "Pallet Town", MapID: 0, X: 3, Y: 3}},
			{Snapshot: game.Snapshot{Location: "Pallet Town", MapID: 0, X: 3, Y: 4}},
			{Snapshot: game.Snapshot{Location: "Route 1", MapID: 11, X: 3, Y: 5}},
			{Snapshot: game.Snapshot{Location: "Route 1", MapID: 11, X: 3, Y: 6, Badges: 1}},
		},
	}
}

func testLoop(t *testing.T, emu game.Emulator, deps Deps, cfg Config) *Loop {
	t.Helper()

	nCfg := novelty.DefaultConfig()
	nCfg.Mode = novelty.ModeHash
	screens, err := novelty.New(nCfg)
	if err != nil {
		t.Fatalf("novelty: %v", err)
	}

	deps.Emulator = emu
	if deps.Agent == nil {
		aCfg := agent.DefaultConfig()
		aCfg.TablePath = cfg.TablePath
		deps.Agent = agent.NewWithSeed(cfg.Actions, aCfg, 1)
	}
	if deps.Engine == nil {
		grid := explore.NewGrid(explore.DefaultAnchors())
		deps.Engine = reward.NewEngine(emu, grid, screens, reward.DefaultConfig())
	}

	l, err := New(deps, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestRunScriptedEndToEnd(t *testing.T) {
	dir := t.TempDir()
	emu := game.NewScripted(testScript())

	runs, err := runlog.NewStore(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("runlog: %v", err)
	}
	defer runs.Close()

	recorder, err := stats.NewRecorder(stats.DefaultConfig(filepath.Join(dir, "stats.csv")))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	defer recorder.Close()

	ckptCfg := checkpoint.DefaultConfig(filepath.Join(dir, "checkpoints"))
	ckptCfg.SaveInterval = 2
	ckpt, err := checkpoint.NewStore(ckptCfg)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Edition = "red"
	cfg.StatusEvery = 1
	cfg.TablePath = filepath.Join(dir, "q_table.json")

	l := testLoop(t, emu, Deps{
		Checkpoints: ckpt,
		Runs:        runs,
		Stats:       recorder,
		Status:      status.NewWriter(filepath.Join(dir, "status.json")),
	}, cfg)

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary := l.Summary()
	// Three transitions walk the four-snapshot script to its end.
	if summary.Steps != 3 {
		t.Fatalf("expected 3 steps, got %d", summary.Steps)
	}
	// Two new locations plus tiles plus the badge: well past 10 points.
	if summary.TotalReward <= 10 {
		t.Fatalf("expected badge-sized reward, got %v", summary.TotalReward)
	}

	// Run record closed with matching totals.
	recorded, err := runs.ListRuns(1)
	if err != nil || len(recorded) != 1 {
		t.Fatalf("ListRuns: %v (%d)", err, len(recorded))
	}
	if recorded[0].TotalSteps != 3 || recorded[0].FinishedAt.IsZero() {
		t.Fatalf("run not finished cleanly: %+v", recorded[0])
	}

	// One decision per step.
	decisions, err := runs.Decisions(summary.RunID, 100)
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(decisions) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(decisions))
	}

	// Milestones: the Route 1 entry and the badge.
	events, err := runs.Events(summary.RunID)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	kinds := make(map[string]int)
	for _, e := range events {
		kinds[e.Kind]++
	}
	if kinds["location"] == 0 || kinds["badge"] != 1 {
		t.Fatalf("unexpected milestones: %+v", events)
	}

	// The badge step produced a protected best checkpoint.
	entries, err := os.ReadDir(filepath.Join(dir, "checkpoints"))
	if err != nil {
		t.Fatalf("checkpoints dir: %v", err)
	}
	foundBest := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "best_badge1_") {
			foundBest = true
		}
	}
	if !foundBest {
		t.Fatalf("no best checkpoint for the badge: %v", entries)
	}

	// Status and value table persisted.
	doc, err := status.Read(filepath.Join(dir, "status.json"))
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if doc.Step != 3 || doc.Badges != 1 {
		t.Fatalf("status document stale: %+v", doc)
	}
	if len(doc.RecentActions) != 3 || doc.RecentActions[2] != doc.LastAction {
		t.Fatalf("action history not published: %+v", doc)
	}
	if _, err := os.Stat(cfg.TablePath); err != nil {
		t.Fatalf("value table not saved: %v", err)
	}
}

// cancellingEmu trips its cancel func after a fixed number of steps,
// simulating an interrupt arriving mid-run.
type cancellingEmu struct {
	*game.Scripted
	cancel context.CancelFunc
	after  int
	steps  int
}

func (c *cancellingEmu) Step(action string) error {
	c.steps++
	if c.steps >= c.after {
		c.cancel()
	}
	return c.Scripted.Step(action)
}

// An interrupted run must still leave a checkpoint behind, even when
// the save interval never elapsed, so the run can be resumed.
func TestCancelledRunWritesFinalCheckpoint(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A long script so cancellation, not script exhaustion, ends the run.
	script := game.Script{Edition: "red"}
	for i := 0; i < 20; i++ {
		script.Steps = append(script.Steps, game.ScriptStep{
			Snapshot: game.Snapshot{Location: "Pallet Town", MapID: 0, X: 3, Y: 3 + i},
		})
	}
	emu := &cancellingEmu{Scripted: game.NewScripted(script), cancel: cancel, after: 2}

	ckptCfg := checkpoint.DefaultConfig(filepath.Join(dir, "checkpoints"))
	ckptCfg.SaveInterval = 1000 // no interval save can fire
	ckpt, err := checkpoint.NewStore(ckptCfg)
	if err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	cfg := DefaultConfig()
	cfg.StatusEvery = 0
	cfg.TablePath = filepath.Join(dir, "q_table.json")
	l := testLoop(t, emu, Deps{Checkpoints: ckpt}, cfg)

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	steps := l.Summary().Steps
	if steps == 0 || steps >= 19 {
		t.Fatalf("cancellation did not interrupt the run: %d steps", steps)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "checkpoints"))
	if err != nil {
		t.Fatalf("checkpoints dir: %v", err)
	}
	found := false
	prefix := "checkpoint_step" + strconv.Itoa(steps) + "_"
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			found = true
			if _, err := os.Stat(filepath.Join(dir, "checkpoints", e.Name(), "q_table.json")); err != nil {
				t.Fatalf("final checkpoint missing value table: %v", err)
			}
		}
	}
	if !found {
		t.Fatalf("no final checkpoint for step %d: %v", steps, entries)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	emu := game.NewScripted(testScript())

	cfg := DefaultConfig()
	cfg.StatusEvery = 0
	l := testLoop(t, emu, Deps{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
	if l.Summary().Steps != 0 {
		t.Fatalf("cancelled run took %d steps", l.Summary().Steps)
	}
}

func TestRunHonorsMaxSteps(t *testing.T) {
	// A script long enough that MaxSteps is the binding limit.
	script := game.Script{Edition: "red"}
	for i := 0; i < 10; i++ {
		script.Steps = append(script.Steps, game.ScriptStep{
			Snapshot: game.Snapshot{Location: "Pallet Town", MapID: 0, X: 3, Y: 3 + i},
		})
	}
	emu := game.NewScripted(script)

	cfg := DefaultConfig()
	cfg.MaxSteps = 4
	l := testLoop(t, emu, Deps{}, cfg)

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.Summary().Steps != 4 {
		t.Fatalf("expected 4 steps, got %d", l.Summary().Steps)
	}
}

func TestEpisodeBoundaryResetsTrackers(t *testing.T) {
	script := game.Script{Edition: "red"}
	for i := 0; i < 7; i++ {
		script.Steps = append(script.Steps, game.ScriptStep{
			Snapshot: game.Snapshot{Location: "Pallet Town", MapID: 0, X: 3, Y: 3 + i},
		})
	}
	emu := game.NewScripted(script)

	grid := explore.NewGrid(explore.DefaultAnchors())
	nCfg := novelty.DefaultConfig()
	nCfg.Mode = novelty.ModeHash
	screens, err := novelty.New(nCfg)
	if err != nil {
		t.Fatalf("novelty: %v", err)
	}
	engine := reward.NewEngine(emu, grid, screens, reward.DefaultConfig())

	cfg := DefaultConfig()
	cfg.EpisodeSteps = 3
	l := testLoop(t, emu, Deps{Engine: engine}, cfg)

	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	summary := l.Summary()
	if summary.Steps != 6 {
		t.Fatalf("expected 6 steps, got %d", summary.Steps)
	}
	// Boundaries at steps 3 and 6; the step-6 boundary coincides with
	// the end of the script and starts no new episode.
	if summary.Episodes != 2 {
		t.Fatalf("expected 2 episodes, got %d", summary.Episodes)
	}
	// The final episode saw only a partial walk; trackers were reset at
	// the last boundary.
	if got := engine.Stats().ExploredTiles; got >= 6 {
		t.Fatalf("trackers not reset at episode boundary: %d tiles", got)
	}
}
