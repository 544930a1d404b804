package replay

import (
	"fmt"

	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/runlog"
)

// #region decision-export

// TransitionsFromDecisions rebuilds position-only transitions from a
// recorded decision log. RAM contents are not recorded, so replaying
// these transitions recomputes only position-derived components.
//
// Each decision carries the pre-step state key and the post-step
// position; the badge count is recovered from the state keys.
func TransitionsFromDecisions(decisions []runlog.Decision) ([]Transition, error) {
	transitions := make([]Transition, 0, len(decisions))

	for i, d := range decisions {
		prevMap, prevBadges, err := parseStateKey(d.StateKey)
		if err != nil {
			return nil, fmt.Errorf("decision step %d: %w", d.Step, err)
		}

		prev := game.Snapshot{
			MapID:    prevMap,
			Badges:   prevBadges,
			Location: game.MapName(prevMap),
		}
		if i > 0 {
			// The previous decision's landing position is this step's
			// starting position.
			prev.X = decisions[i-1].X
			prev.Y = decisions[i-1].Y
		} else {
			prev.X = d.X
			prev.Y = d.Y
		}

		currBadges := prevBadges
		if i+1 < len(decisions) {
			_, nextBadges, err := parseStateKey(decisions[i+1].StateKey)
			if err != nil {
				return nil, fmt.Errorf("decision step %d: %w", decisions[i+1].Step, err)
			}
			currBadges = nextBadges
		}

		transitions = append(transitions, Transition{
			Step:   d.Step,
			Action: d.Action,
			Prev:   prev,
			Curr: game.Snapshot{
				MapID:    d.MapID,
				Badges:   currBadges,
				X:        d.X,
				Y:        d.Y,
				Location: game.MapName(d.MapID),
			},
		})
	}

	return transitions, nil
}

// FixtureFromDecisions builds a replay fixture from a recorded run.
// Expectations cover only the position-derived components that a
// memory-less replay can reproduce.
func FixtureFromDecisions(description string, decisions []runlog.Decision) (*Fixture, error) {
	transitions, err := TransitionsFromDecisions(decisions)
	if err != nil {
		return nil, err
	}

	f := &Fixture{
		Description: description,
		Transitions: make([]FixtureTransition, len(transitions)),
	}

	for i, tr := range transitions {
		f.Transitions[i] = FixtureTransition{
			Step:   tr.Step,
			Action: tr.Action,
			Prev:   tr.Prev,
			Curr:   tr.Curr,
		}

		recorded := decisions[i].Breakdown
		if recorded == nil {
			continue
		}
		components := map[string]float64{}
		total := 0.0
		for _, component := range []string{"badge", "explore", "stuck", "loop"} {
			components[component] = recorded[component]
			total += recorded[component]
		}
		f.Expected = append(f.Expected, Expectation{
			Step:       tr.Step,
			Total:      total,
			Components: components,
		})
	}

	return f, nil
}

func parseStateKey(key string) (mapID, badges int, err error) {
	if _, err := fmt.Sscanf(key, "map_%d_badges_%d", &mapID, &badges); err != nil {
		return 0, 0, fmt.Errorf("bad state key %q: %w", key, err)
	}
	return mapID, badges, nil
}

// #endregion decision-export
