// Package agent implements a tabular action-value learner. States are
// discretized to coarse keys so the table stays tractable; updates
// follow the standard off-policy temporal-difference rule.
package agent

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/pokerushai/go-trainer/internal/game"
)

// #region config

// Config holds the learning hyperparameters and persistence wiring.
type Config struct {
	// Alpha is the learning rate.
	Alpha float64
	// Gamma is the discount factor.
	Gamma float64
	// Epsilon is the exploration probability.
	Epsilon float64

	// SaveInterval persists the table every N updates. Zero disables
	// auto-save.
	SaveInterval int
	// TablePath is the value-table file; empty disables persistence.
	TablePath string
}

// DefaultConfig returns the reference hyperparameters.
func DefaultConfig() Config {
	return Config{
		Alpha:        0.1,
		Gamma:        0.95,
		Epsilon:      0.2,
		SaveInterval: 100,
	}
}

// #endregion config

// #region state-key

// StateKey discretizes a snapshot for table lookup. Only the map
// identifier and badge count participate: two snapshots on the same
// map with the same badges share a key regardless of coordinates,
// which bounds the table size.
func StateKey(s game.Snapshot) string {
	return fmt.Sprintf("map_%d_badges_%d", s.MapID, s.Badges)
}

// #endregion state-key

// #region agent

// Agent is a tabular value learner. Owned exclusively by the training
// loop; not safe for concurrent use.
type Agent struct {
	actions        []string
	cfg            Config
	table          map[string]map[string]float64
	totalUpdates   int
	statesExplored map[string]struct{}
	rng            *rand.Rand
}

// New creates an agent over the given action set.
func New(actions []string, cfg Config) *Agent {
	return NewWithSeed(actions, cfg, time.Now().UnixNano())
}

// NewWithSeed creates an agent with a fixed random seed, for
// reproducible runs and tests.
func NewWithSeed(actions []string, cfg Config, seed int64) *Agent {
	return &Agent{
		actions:        actions,
		cfg:            cfg,
		table:          make(map[string]map[string]float64),
		statesExplored: make(map[string]struct{}),
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// #endregion agent

// #region select-action

// SelectAction picks an action epsilon-greedily. The second return is
// true when the choice was exploratory — either an epsilon roll or a
// state with no recorded values yet. Ties break to the first maximal
// action in evaluation order.
func (a *Agent) SelectAction(s game.Snapshot, available []string) (string, bool) {
	if len(available) == 0 {
		available = a.actions
	}

	key := StateKey(s)
	a.statesExplored[key] = struct{}{}

	if a.rng.Float64() < a.cfg.Epsilon {
		return available[a.rng.Intn(len(available))], true
	}

	values := a.table[key]
	if len(values) == 0 {
		// Nothing learned for this state yet.
		return available[a.rng.Intn(len(available))], true
	}

	best := available[0]
	bestValue := math.Inf(-1)
	for _, action := range available {
		if v := values[action]; v > bestValue {
			best = action
			bestValue = v
		}
	}
	return best, false
}

// #endregion select-action

// #region update

// Update applies the temporal-difference rule:
//
//	Q(s,a) += alpha * (r + gamma * max_a' Q(s',a') - Q(s,a))
//
// The next-state maximum is taken over recorded actions regardless of
// which action will actually run next (off-policy), and is zero on
// terminal transitions or unknown next states.
func (a *Agent) Update(s game.Snapshot, action string, reward float64, next game.Snapshot, terminal bool) {
	key := StateKey(s)
	nextKey := StateKey(next)

	if a.table[key] == nil {
		a.table[key] = make(map[string]float64)
	}
	current := a.table[key][action]

	maxNext := 0.0
	if !terminal {
		if nextValues := a.table[nextKey]; len(nextValues) > 0 {
			first := true
			for _, v := range nextValues {
				if first || v > maxNext {
					maxNext = v
					first = false
				}
			}
		}
	}

	a.table[key][action] = current + a.cfg.Alpha*(reward+a.cfg.Gamma*maxNext-current)
	a.totalUpdates++

	if a.cfg.SaveInterval > 0 && a.cfg.TablePath != "" && a.totalUpdates%a.cfg.SaveInterval == 0 {
		if err := a.Save(); err != nil {
			log.Printf("[AGENT] auto-save failed: %v", err)
		}
	}
}

// #endregion update

// #region accessors

// Value returns the recorded value for a (state key, action) pair,
// zero when unrecorded.
func (a *Agent) Value(stateKey, action string) float64 {
	return a.table[stateKey][action]
}

// Stats summarizes learning progress.
type Stats struct {
	StatesExplored int `json:"states_explored"`
	TotalUpdates   int `json:"total_updates"`
	TableSize      int `json:"q_table_size"`
}

// Stats returns current learning statistics.
func (a *Agent) Stats() Stats {
	size := 0
	for _, actions := range a.table {
		size += len(actions)
	}
	return Stats{
		StatesExplored: len(a.statesExplored),
		TotalUpdates:   a.totalUpdates,
		TableSize:      size,
	}
}

// #endregion accessors
