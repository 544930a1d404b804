// Package replay re-runs recorded transitions through the reward
// pipeline, entirely offline. Its fixtures are the regression net for
// reward tuning: if a point value or tracker rule changes, the
// expected per-step breakdowns catch the drift.
package replay

import (
	"fmt"

	"github.com/pokerushai/go-trainer/internal/explore"
	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/novelty"
	"github.com/pokerushai/go-trainer/internal/reward"
)

// #region types

// Transition is one recorded step: the state before and after the
// action, plus the RAM bytes that changed going into this step.
type Transition struct {
	Step   int
	Action string
	Prev   game.Snapshot
	Curr   game.Snapshot
	Memory map[uint16]byte
}

// Result captures the reward breakdown produced for one transition.
type Result struct {
	Step      int
	Action    string
	Breakdown reward.Breakdown
}

// Summary aggregates a replay run.
type Summary struct {
	TotalSteps  int
	TotalReward float64
	ByComponent map[string]float64
	Trackers    reward.Stats
}

// #endregion types

// #region scripted-memory

// scriptedMemory is a sparse RAM image built up from recorded
// overlays. Unset addresses read as zero.
type scriptedMemory struct {
	cells map[uint16]byte
}

func newScriptedMemory(initial map[uint16]byte) *scriptedMemory {
	m := &scriptedMemory{cells: make(map[uint16]byte, len(initial))}
	m.apply(initial)
	return m
}

func (m *scriptedMemory) apply(overlay map[uint16]byte) {
	for addr, val := range overlay {
		m.cells[addr] = val
	}
}

func (m *scriptedMemory) ReadMemory(addr uint16) byte {
	return m.cells[addr]
}

// #endregion scripted-memory

// #region replay

// Replay runs the transitions through a fresh reward engine. The
// initial memory image is applied before the engine baselines itself,
// exactly as a live episode start would see it; each transition's
// overlay is applied before its breakdown is computed.
func Replay(initial map[uint16]byte, transitions []Transition, cfg reward.Config) ([]Result, Summary, error) {
	mem := newScriptedMemory(initial)

	grid := explore.NewGrid(explore.DefaultAnchors())

	// Screens are not part of recorded transitions; a hash index keeps
	// the engine complete without the vector store's footprint.
	nCfg := novelty.DefaultConfig()
	nCfg.Mode = novelty.ModeHash
	screens, err := novelty.New(nCfg)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("novelty index: %w", err)
	}

	engine := reward.NewEngine(mem, grid, screens, cfg)

	results := make([]Result, 0, len(transitions))
	summary := Summary{ByComponent: make(map[string]float64)}

	for _, tr := range transitions {
		mem.apply(tr.Memory)
		breakdown := engine.Calculate(tr.Prev, tr.Curr, 0)

		results = append(results, Result{
			Step:      tr.Step,
			Action:    tr.Action,
			Breakdown: breakdown,
		})

		summary.TotalSteps++
		summary.TotalReward += breakdown.Total()
		for component, v := range breakdown {
			if component == "total" {
				continue
			}
			summary.ByComponent[component] += v
		}
	}

	summary.Trackers = engine.Stats()
	return results, summary, nil
}

// #endregion replay
