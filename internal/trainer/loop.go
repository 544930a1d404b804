// Package trainer is the top-level coordinator: it drives the
// emulator, asks the agent for actions, scores transitions through the
// reward engine, and fans results out to persistence and telemetry.
package trainer

// #region imports
import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pokerushai/go-trainer/internal/agent"
	"github.com/pokerushai/go-trainer/internal/checkpoint"
	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/reward"
	"github.com/pokerushai/go-trainer/internal/runlog"
	"github.com/pokerushai/go-trainer/internal/stats"
	"github.com/pokerushai/go-trainer/internal/status"
)

// #endregion

// #region config

// Config tunes the training loop itself. Component tuning lives in the
// respective package configs.
type Config struct {
	// Edition names the ROM variant for run records.
	Edition string

	// Actions is the agent's action set.
	Actions []string

	// MaxSteps stops the run after this many steps. Zero runs until
	// the context is cancelled or a scripted session ends.
	MaxSteps int

	// EpisodeSteps resets the reward trackers every N steps. Zero
	// disables episode boundaries.
	EpisodeSteps int

	// UseHeuristics lets early-game routing hints steer exploratory
	// picks. Greedy picks are never overridden.
	UseHeuristics bool

	// StatusEvery publishes the status document every N steps.
	StatusEvery int

	// TablePath is the agent's value-table file, bundled into
	// checkpoints. Empty skips the copy.
	TablePath string
}

// DefaultConfig returns the reference loop tuning.
func DefaultConfig() Config {
	return Config{
		Actions:       []string{"UP", "DOWN", "LEFT", "RIGHT", "A", "B"},
		UseHeuristics: true,
		StatusEvery:   10,
	}
}

// #endregion config

// #region deps

// Deps carries the loop's collaborators. Emulator, Agent and Engine
// are required; the rest degrade to no-ops when nil.
type Deps struct {
	Emulator    game.Emulator
	Agent       *agent.Agent
	Engine      *reward.Engine
	Checkpoints *checkpoint.Store
	Runs        *runlog.Store
	Stats       *stats.Recorder
	Status      *status.Writer
}

// #endregion deps

// #region loop-struct

// Loop is the training orchestrator. Single-owner; Run is not
// reentrant.
type Loop struct {
	cfg Config

	emu    game.Emulator
	agent  *agent.Agent
	engine *reward.Engine
	ckpt   *checkpoint.Store
	runs   *runlog.Store
	stats  *stats.Recorder
	status *status.Writer

	runID       string
	step        int
	episode     int
	totalReward float64
	lastDied    int
	recent      []string
}

// recentActionCap bounds the action history published in the status
// document.
const recentActionCap = 10

// New validates the wiring and returns a ready loop.
func New(deps Deps, cfg Config) (*Loop, error) {
	if deps.Emulator == nil {
		return nil, fmt.Errorf("trainer: emulator is required")
	}
	if deps.Agent == nil {
		return nil, fmt.Errorf("trainer: agent is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("trainer: reward engine is required")
	}
	if len(cfg.Actions) == 0 {
		cfg.Actions = DefaultConfig().Actions
	}
	return &Loop{
		cfg:    cfg,
		emu:    deps.Emulator,
		agent:  deps.Agent,
		engine: deps.Engine,
		ckpt:   deps.Checkpoints,
		runs:   deps.Runs,
		stats:  deps.Stats,
		status: deps.Status,
	}, nil
}

// #endregion loop-struct

// #region run

// Run executes the training loop until MaxSteps, context cancellation,
// or the end of a scripted session. It flushes all sinks on the way
// out regardless of how the loop ended.
func (l *Loop) Run(ctx context.Context) error {
	if l.runs != nil {
		runID, err := l.runs.StartRun(l.cfg.Edition, l.cfg)
		if err != nil {
			return fmt.Errorf("start run: %w", err)
		}
		l.runID = runID
	}

	prev, err := l.emu.GetState()
	if err != nil {
		return fmt.Errorf("initial state: %w", err)
	}

	log.Printf("[TRAIN] run %s starting at %s (map %d)", l.runID, prev.Location, prev.MapID)

	for l.cfg.MaxSteps == 0 || l.step < l.cfg.MaxSteps {
		select {
		case <-ctx.Done():
			log.Printf("[TRAIN] stop requested at step %d", l.step)
			return l.shutdown()
		default:
		}

		curr, terminal, err := l.runStep(prev)
		if err != nil {
			l.shutdown()
			return err
		}
		prev = curr

		if terminal {
			break
		}
	}

	return l.shutdown()
}

// runStep executes one action and routes the outcome everywhere it
// needs to go. The returned terminal flag ends the run.
func (l *Loop) runStep(prev game.Snapshot) (game.Snapshot, bool, error) {
	l.step++
	stepStart := time.Now()

	action, wasExploration := l.agent.SelectAction(prev, l.cfg.Actions)
	if wasExploration && l.cfg.UseHeuristics {
		if suggested := reward.SuggestAction(prev, l.cfg.Actions); suggested != "" {
			action = suggested
		}
	}

	l.recent = append(l.recent, action)
	if len(l.recent) > recentActionCap {
		l.recent = l.recent[1:]
	}

	if err := l.emu.Step(action); err != nil {
		return prev, false, fmt.Errorf("step %d (%s): %w", l.step, action, err)
	}
	curr, err := l.emu.GetState()
	if err != nil {
		return prev, false, fmt.Errorf("state after step %d: %w", l.step, err)
	}

	l.engine.ObserveFrame(l.emu.Frame())
	breakdown := l.engine.Calculate(prev, curr, time.Since(stepStart).Seconds())
	screen := l.engine.ScreenReward()
	breakdown["screen"] = screen
	breakdown["total"] += screen
	total := breakdown.Total()
	l.totalReward += total

	terminal := l.scriptDone() ||
		(l.cfg.MaxSteps > 0 && l.step >= l.cfg.MaxSteps)
	episodeEnd := l.cfg.EpisodeSteps > 0 && l.step%l.cfg.EpisodeSteps == 0

	l.agent.Update(prev, action, total, curr, terminal || episodeEnd)

	l.recordMilestones(prev, curr)
	l.recordStep(prev, curr, action, wasExploration, breakdown)

	if l.ckpt != nil && l.ckpt.ShouldCheckpoint(l.step) {
		if _, err := l.ckpt.Save(l.step, l.episode, l.totalReward, l.artifacts(), false); err != nil {
			log.Printf("[TRAIN] checkpoint failed: %v", err)
		}
	}

	if episodeEnd && !terminal {
		l.episode++
		l.engine.Reset()
		l.lastDied = 0
		log.Printf("[TRAIN] episode %d starting at step %d", l.episode, l.step)
	}

	return curr, terminal, nil
}

// scriptDone detects exhausted scripted sessions. Live emulators never
// report done.
func (l *Loop) scriptDone() bool {
	type doner interface{ Done() bool }
	if d, ok := l.emu.(doner); ok {
		return d.Done()
	}
	return false
}

// #endregion run

// #region recording

// recordMilestones logs game progress events and flags badge steps as
// best checkpoints.
func (l *Loop) recordMilestones(prev, curr game.Snapshot) {
	if curr.Badges > prev.Badges {
		l.logEvent("badge", fmt.Sprintf("count=%d", curr.Badges))
		if l.ckpt != nil {
			reason := fmt.Sprintf("badge%d", curr.Badges)
			if _, err := l.ckpt.SaveBest(l.step, l.episode, l.totalReward, l.artifacts(), reason); err != nil {
				log.Printf("[TRAIN] best checkpoint failed: %v", err)
			}
		}
	}
	if curr.Location != prev.Location {
		l.logEvent("location", curr.Location)
	}
	if died := l.engine.Stats().DiedCount; died > l.lastDied {
		l.lastDied = died
		l.logEvent("death", fmt.Sprintf("count=%d", died))
	}
}

func (l *Loop) logEvent(kind, detail string) {
	if l.runs == nil {
		return
	}
	err := l.runs.LogEvent(runlog.Event{
		RunID:  l.runID,
		Step:   l.step,
		Kind:   kind,
		Detail: detail,
	})
	if err != nil {
		log.Printf("[TRAIN] event log failed: %v", err)
	}
}

// recordStep fans one step out to the decision log, the stats CSV and
// the status file. Telemetry failures are logged, never fatal.
func (l *Loop) recordStep(prev, curr game.Snapshot, action string, wasExploration bool, breakdown reward.Breakdown) {
	agentStats := l.agent.Stats()
	engineStats := l.engine.Stats()

	if l.runs != nil {
		err := l.runs.LogDecision(runlog.Decision{
			RunID:          l.runID,
			Step:           l.step,
			StateKey:       agent.StateKey(prev),
			Action:         action,
			WasExploration: wasExploration,
			Reward:         breakdown.Total(),
			Breakdown:      breakdown,
			MapID:          curr.MapID,
			X:              curr.X,
			Y:              curr.Y,
		})
		if err != nil {
			log.Printf("[TRAIN] decision log failed: %v", err)
		}
	}

	if l.stats != nil {
		err := l.stats.Record(stats.Row{
			Step:           l.step,
			Episode:        l.episode,
			MapID:          curr.MapID,
			X:              curr.X,
			Y:              curr.Y,
			Action:         action,
			WasExploration: wasExploration,
			Reward:         breakdown.Total(),
			TotalReward:    l.totalReward,
			Badges:         curr.Badges,
			StatesExplored: agentStats.StatesExplored,
			UniqueScreens:  engineStats.UniqueFrames,
		})
		if err != nil {
			log.Printf("[TRAIN] stats record failed: %v", err)
		}
	}

	if l.status != nil && l.cfg.StatusEvery > 0 && l.step%l.cfg.StatusEvery == 0 {
		err := l.status.Write(status.Document{
			RunID:          l.runID,
			Step:           l.step,
			Episode:        l.episode,
			MapID:          curr.MapID,
			Location:       curr.Location,
			X:              curr.X,
			Y:              curr.Y,
			Badges:         curr.Badges,
			TotalReward:    l.totalReward,
			LastReward:     breakdown.Total(),
			LastAction:     action,
			RecentActions:  append([]string(nil), l.recent...),
			StatesExplored: agentStats.StatesExplored,
			CoordsSeen:     engineStats.UniqueCoords,
			UniqueScreens:  engineStats.UniqueFrames,
			DiedCount:      engineStats.DiedCount,
		})
		if err != nil {
			log.Printf("[TRAIN] status write failed: %v", err)
		}
	}
}

// artifacts bundles the current agent table and engine trackers for a
// checkpoint.
func (l *Loop) artifacts() checkpoint.Artifacts {
	art := checkpoint.Artifacts{
		Stats: map[string]any{
			"total_reward": l.totalReward,
			"agent":        l.agent.Stats(),
			"engine":       l.engine.Stats(),
		},
	}
	if l.cfg.TablePath != "" {
		if err := l.agent.Save(); err != nil {
			log.Printf("[TRAIN] table save for checkpoint failed: %v", err)
		} else {
			art.ValueTablePath = l.cfg.TablePath
		}
	}
	return art
}

// #endregion recording

// #region shutdown

// shutdown flushes every sink. Errors are logged individually; the
// first one is returned so a dirty exit is visible to the caller.
func (l *Loop) shutdown() error {
	log.Printf("[TRAIN] run finished: %d steps, total reward %.1f", l.step, l.totalReward)

	var firstErr error
	keep := func(err error) {
		if err != nil {
			log.Printf("[TRAIN] shutdown: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if l.cfg.TablePath != "" {
		keep(l.agent.Save())
	}
	// A final checkpoint regardless of the interval, so an interrupted
	// run can resume from its last state.
	if l.ckpt != nil && l.step > 0 {
		if _, err := l.ckpt.Save(l.step, l.episode, l.totalReward, l.artifacts(), false); err != nil {
			log.Printf("[TRAIN] final checkpoint failed: %v", err)
		}
	}
	if l.stats != nil {
		keep(l.stats.Flush())
	}
	if l.runs != nil && l.runID != "" {
		keep(l.runs.FinishRun(l.runID, l.step, l.totalReward))
	}
	return firstErr
}

// #endregion shutdown

// #region accessors

// Summary reports the loop's run counters.
type Summary struct {
	RunID       string  `json:"run_id"`
	Steps       int     `json:"steps"`
	Episodes    int     `json:"episodes"`
	TotalReward float64 `json:"total_reward"`
}

// Summary returns the counters accumulated so far.
func (l *Loop) Summary() Summary {
	return Summary{
		RunID:       l.runID,
		Steps:       l.step,
		Episodes:    l.episode + 1,
		TotalReward: l.totalReward,
	}
}

// #endregion accessors
