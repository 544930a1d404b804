package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pokerushai/go-trainer/internal/runlog"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to runs.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	decisions := flag.Int("decisions", 20, "decisions to show in run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/runs.db [--last N] [--run id] [--decisions N] [--json]")
		os.Exit(2)
	}

	store, err := runlog.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *decisions, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID       string  `json:"run_id"`
	Edition     string  `json:"edition"`
	StartedAt   string  `json:"started_at"`
	Finished    bool    `json:"finished"`
	TotalSteps  int     `json:"total_steps"`
	TotalReward float64 `json:"total_reward"`
}

func runListMode(store *runlog.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = listRow{
			RunID:       r.RunID,
			Edition:     r.ROMEdition,
			StartedAt:   r.StartedAt.Format("2006-01-02T15:04:05Z"),
			Finished:    !r.FinishedAt.IsZero(),
			TotalSteps:  r.TotalSteps,
			TotalReward: r.TotalReward,
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-8s  %-20s  %-8s  %8s  %10s\n",
		"Run", "Edition", "Started", "Status", "Steps", "Reward")
	for _, r := range rows {
		statusText := "running"
		if r.Finished {
			statusText = "done"
		}
		fmt.Printf("%-12s  %-8s  %-20s  %-8s  %8d  %10.2f\n",
			shortID(r.RunID), r.Edition, r.StartedAt, statusText, r.TotalSteps, r.TotalReward)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Run       listRow           `json:"run"`
	Events    []runlog.Event    `json:"events"`
	Decisions []runlog.Decision `json:"decisions"`
}

func runDetailMode(store *runlog.Store, runID string, limit int, jsonOut bool) error {
	runs, err := store.ListRuns(1000)
	if err != nil {
		return err
	}
	var run *runlog.Run
	for i := range runs {
		if runs[i].RunID == runID || shortID(runs[i].RunID) == runID {
			run = &runs[i]
			break
		}
	}
	if run == nil {
		return fmt.Errorf("run %s not found", runID)
	}

	events, err := store.Events(run.RunID)
	if err != nil {
		return err
	}
	decisions, err := store.Decisions(run.RunID, limit)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(detailOutput{
			Run: listRow{
				RunID:       run.RunID,
				Edition:     run.ROMEdition,
				StartedAt:   run.StartedAt.Format("2006-01-02T15:04:05Z"),
				Finished:    !run.FinishedAt.IsZero(),
				TotalSteps:  run.TotalSteps,
				TotalReward: run.TotalReward,
			},
			Events:    events,
			Decisions: decisions,
		})
	}

	fmt.Printf("Run:      %s\n", run.RunID)
	fmt.Printf("Edition:  %s\n", run.ROMEdition)
	fmt.Printf("Started:  %s\n", run.StartedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Steps:    %d\n", run.TotalSteps)
	fmt.Printf("Reward:   %.2f\n", run.TotalReward)

	if len(events) > 0 {
		fmt.Printf("\nMilestones:\n")
		for _, e := range events {
			fmt.Printf("  step %-7d %-10s %s\n", e.Step, e.Kind, e.Detail)
		}
	}

	if len(decisions) > 0 {
		fmt.Printf("\nDecisions (first %d):\n", len(decisions))
		fmt.Printf("  %-7s  %-24s  %-6s  %-4s  %8s  %s\n",
			"Step", "State", "Action", "Exp", "Reward", "Pos")
		for _, d := range decisions {
			exp := ""
			if d.WasExploration {
				exp = "*"
			}
			fmt.Printf("  %-7d  %-24s  %-6s  %-4s  %8.3f  map %d (%d,%d)\n",
				d.Step, d.StateKey, d.Action, exp, d.Reward, d.MapID, d.X, d.Y)
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
