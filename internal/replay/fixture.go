package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/reward"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description   string              `json:"description"`
	Config        FixtureConfig       `json:"config"`
	InitialMemory map[string]byte     `json:"initial_memory,omitempty"`
	Transitions   []FixtureTransition `json:"transitions"`
	Expected      []Expectation       `json:"expected"`
}

// FixtureConfig mirrors reward.Config with JSON tags. Zero-valued
// fields fall back to the reference tuning, so fixtures only state
// what they override.
type FixtureConfig struct {
	Scale               float64 `json:"scale"`
	ExploreWeight       float64 `json:"explore_weight"`
	GracePeriod         int     `json:"grace_period"`
	StuckVisitThreshold int     `json:"stuck_visit_threshold"`
	LoopWindow          int     `json:"loop_window"`
	LoopDistinctMax     int     `json:"loop_distinct_max"`
}

// FixtureTransition mirrors Transition with JSON tags. RAM overlays
// use hex address keys, matching recorded script files.
type FixtureTransition struct {
	Step   int             `json:"step"`
	Action string          `json:"action"`
	Prev   game.Snapshot   `json:"prev"`
	Curr   game.Snapshot   `json:"curr"`
	Memory map[string]byte `json:"memory,omitempty"`
}

// Expectation is the expected breakdown for one step. Only the listed
// components are asserted; Total always applies.
type Expectation struct {
	Step       int                `json:"step"`
	Total      float64            `json:"total"`
	Components map[string]float64 `json:"components,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Transitions) == 0 {
		return nil, fmt.Errorf("fixture %s has no transitions", path)
	}
	return &f, nil
}

// ToRewardConfig converts a fixture config, defaulting unset fields.
func (c FixtureConfig) ToRewardConfig() reward.Config {
	cfg := reward.DefaultConfig()
	if c.Scale != 0 {
		cfg.Scale = c.Scale
	}
	if c.ExploreWeight != 0 {
		cfg.ExploreWeight = c.ExploreWeight
	}
	if c.GracePeriod != 0 {
		cfg.GracePeriod = c.GracePeriod
	}
	if c.StuckVisitThreshold != 0 {
		cfg.StuckVisitThreshold = c.StuckVisitThreshold
	}
	if c.LoopWindow != 0 {
		cfg.LoopWindow = c.LoopWindow
	}
	if c.LoopDistinctMax != 0 {
		cfg.LoopDistinctMax = c.LoopDistinctMax
	}
	return cfg
}

// ToTransition converts a fixture transition to the domain type.
func (t FixtureTransition) ToTransition() (Transition, error) {
	overlay, err := ParseOverlay(t.Memory)
	if err != nil {
		return Transition{}, fmt.Errorf("step %d: %w", t.Step, err)
	}
	return Transition{
		Step:   t.Step,
		Action: t.Action,
		Prev:   t.Prev,
		Curr:   t.Curr,
		Memory: overlay,
	}, nil
}

// ParseOverlay converts a hex-keyed RAM overlay to addressed bytes.
func ParseOverlay(raw map[string]byte) (map[uint16]byte, error) {
	if raw == nil {
		return nil, nil
	}
	overlay := make(map[uint16]byte, len(raw))
	for hexAddr, val := range raw {
		var addr uint16
		if _, err := fmt.Sscanf(hexAddr, "0x%X", &addr); err != nil {
			return nil, fmt.Errorf("bad address %q: %w", hexAddr, err)
		}
		overlay[addr] = val
	}
	return overlay, nil
}

// Run loads the fixture's transitions and replays them under its
// config.
func (f *Fixture) Run() ([]Result, Summary, error) {
	initial, err := ParseOverlay(f.InitialMemory)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("initial memory: %w", err)
	}

	transitions := make([]Transition, len(f.Transitions))
	for i, ft := range f.Transitions {
		tr, err := ft.ToTransition()
		if err != nil {
			return nil, Summary{}, err
		}
		transitions[i] = tr
	}

	return Replay(initial, transitions, f.Config.ToRewardConfig())
}

// #endregion fixture-loader
