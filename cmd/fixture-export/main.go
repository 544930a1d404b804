package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pokerushai/go-trainer/internal/replay"
	"github.com/pokerushai/go-trainer/internal/runlog"
	_ "modernc.org/sqlite"
)

// #region main

// fixture-export turns a recorded run into a replay fixture so a
// tuning change can be checked against real trajectories.
func main() {
	dbPath := flag.String("db", "", "path to runs.db")
	runID := flag.String("run", "", "run to export")
	out := flag.String("out", "", "output fixture path (default stdout)")
	limit := flag.Int("limit", 1000, "max decisions to export")
	description := flag.String("description", "", "fixture description")
	flag.Parse()

	if *dbPath == "" || *runID == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/runs.db --run <id> [--out fixture.json] [--limit N]")
		os.Exit(2)
	}

	store, err := runlog.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	decisions, err := store.Decisions(*runID, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "decisions: %v\n", err)
		os.Exit(1)
	}
	if len(decisions) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no decisions\n", *runID)
		os.Exit(1)
	}

	desc := *description
	if desc == "" {
		desc = fmt.Sprintf("exported from run %s (%d steps, position components only)", *runID, len(decisions))
	}

	fixture, err := replay.FixtureFromDecisions(desc, decisions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build fixture: %v\n", err)
		os.Exit(1)
	}

	raw, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		os.Exit(1)
	}
	raw = append(raw, '\n')

	if *out == "" {
		os.Stdout.Write(raw)
		return
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d transitions)\n", *out, len(fixture.Transitions))
}

// #endregion main
