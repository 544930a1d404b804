package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/pokerushai/go-trainer/internal/replay"
	"github.com/pokerushai/go-trainer/internal/reward"
	"github.com/pokerushai/go-trainer/internal/runlog"
	_ "modernc.org/sqlite"
)

const tolerance = 1e-6

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	dbPath := flag.String("db", "", "path to runs.db (DB mode)")
	runID := flag.String("run", "", "run to replay in DB mode")
	flag.Parse()

	if (*fixturePath == "" && *dbPath == "") || (*fixturePath != "" && *dbPath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --db path/to/runs.db --run <id>")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath)
	} else {
		exitCode = runDBMode(*dbPath, *runID)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region fixture-mode

// runFixtureMode replays a fixture and verifies every expected
// breakdown. Exit 1 on any drift.
func runFixtureMode(path string) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	results, summary, err := f.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	fmt.Printf("Fixture: %s\n", f.Description)
	fmt.Printf("%-6s  %-6s  %10s  %s\n", "Step", "Action", "Total", "Components")
	for _, r := range results {
		fmt.Printf("%-6d  %-6s  %10.4f  %s\n",
			r.Step, r.Action, r.Breakdown.Total(), nonZero(r.Breakdown))
	}

	failures := 0
	byStep := make(map[int]reward.Breakdown, len(results))
	for _, r := range results {
		byStep[r.Step] = r.Breakdown
	}
	for _, want := range f.Expected {
		got, ok := byStep[want.Step]
		if !ok {
			fmt.Printf("FAIL step %d: no result\n", want.Step)
			failures++
			continue
		}
		if math.Abs(got.Total()-want.Total) > tolerance {
			fmt.Printf("FAIL step %d: total %v, want %v\n", want.Step, got.Total(), want.Total)
			failures++
		}
		for component, expected := range want.Components {
			if math.Abs(got[component]-expected) > tolerance {
				fmt.Printf("FAIL step %d: %s = %v, want %v\n",
					want.Step, component, got[component], expected)
				failures++
			}
		}
	}

	fmt.Printf("\n%d steps, total reward %.4f", summary.TotalSteps, summary.TotalReward)
	if failures > 0 {
		fmt.Printf(", %d FAILURES\n", failures)
		return 1
	}
	fmt.Printf(", all expectations met\n")
	return 0
}

// #endregion fixture-mode

// #region db-mode

// runDBMode rebuilds a recorded run's transitions from the decision
// log and re-runs the movement components. RAM contents are not
// recorded, so only position-derived components (badge, explore,
// stuck, loop) are compared against the stored breakdowns.
func runDBMode(dbPath, runID string) int {
	if runID == "" {
		fmt.Fprintln(os.Stderr, "DB mode requires --run")
		return 2
	}

	store, err := runlog.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	decisions, err := store.Decisions(runID, 1<<20)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decisions: %v\n", err)
		return 2
	}
	if len(decisions) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no decisions\n", runID)
		return 2
	}

	transitions, err := replay.TransitionsFromDecisions(decisions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild transitions: %v\n", err)
		return 2
	}

	results, summary, err := replay.Replay(nil, transitions, reward.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		return 2
	}

	movement := []string{"badge", "explore", "stuck", "loop"}
	drift := 0
	for i, r := range results {
		recorded := decisions[i].Breakdown
		if recorded == nil {
			continue
		}
		for _, component := range movement {
			if math.Abs(r.Breakdown[component]-recorded[component]) > tolerance {
				fmt.Printf("DRIFT step %d: %s recomputed %v, recorded %v\n",
					r.Step, component, r.Breakdown[component], recorded[component])
				drift++
			}
		}
	}

	fmt.Printf("replayed %d steps of run %s (movement components only)\n", summary.TotalSteps, runID)
	if drift > 0 {
		fmt.Printf("%d drifting values\n", drift)
		return 1
	}
	fmt.Println("no drift")
	return 0
}

// #endregion db-mode

// #region helpers

func nonZero(b reward.Breakdown) string {
	out := ""
	for _, component := range []string{"badge", "event", "level", "explore", "opponent", "heal", "death", "stuck", "loop", "screen"} {
		if v, ok := b[component]; ok && v != 0 {
			if out != "" {
				out += " "
			}
			out += fmt.Sprintf("%s=%.4f", component, v)
		}
	}
	if out == "" {
		return "-"
	}
	return out
}

// #endregion helpers
