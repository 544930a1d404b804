package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pokerushai/go-trainer/internal/agent"
	"github.com/pokerushai/go-trainer/internal/checkpoint"
	"github.com/pokerushai/go-trainer/internal/explore"
	"github.com/pokerushai/go-trainer/internal/game"
	"github.com/pokerushai/go-trainer/internal/novelty"
	"github.com/pokerushai/go-trainer/internal/reward"
	"github.com/pokerushai/go-trainer/internal/runlog"
	"github.com/pokerushai/go-trainer/internal/stats"
	"github.com/pokerushai/go-trainer/internal/status"
	"github.com/pokerushai/go-trainer/internal/trainer"
)

// #region main

func main() {
	scriptPath := flag.String("script", "", "recorded session to play back (required)")
	dataDir := flag.String("data", envOr("TRAINER_DATA", "trainer_data"), "data directory for table, logs and checkpoints")
	dbPath := flag.String("db", "", "run log database (default <data>/runs.db, \"off\" disables)")
	maxSteps := flag.Int("max-steps", 0, "stop after N steps (0 = run the whole script)")
	episodeSteps := flag.Int("episode-steps", 0, "reset reward trackers every N steps (0 = single episode)")
	alpha := flag.Float64("alpha", 0.1, "learning rate")
	gamma := flag.Float64("gamma", 0.95, "discount factor")
	epsilon := flag.Float64("epsilon", 0.2, "exploration probability")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	heuristics := flag.Bool("heuristics", true, "allow early-game routing hints on exploratory picks")
	noveltyMode := flag.String("novelty", envOr("TRAINER_NOVELTY", "auto"), "screen novelty index: auto, vector or hash")
	resume := flag.Bool("resume", true, "load an existing value table if present")
	flag.Parse()

	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "usage: trainer --script path/to/session.json [flags]")
		os.Exit(2)
	}

	if err := run(*scriptPath, *dataDir, *dbPath, runOptions{
		maxSteps:     *maxSteps,
		episodeSteps: *episodeSteps,
		alpha:        *alpha,
		gamma:        *gamma,
		epsilon:      *epsilon,
		seed:         *seed,
		heuristics:   *heuristics,
		noveltyMode:  *noveltyMode,
		resume:       *resume,
	}); err != nil {
		log.Fatalf("trainer: %v", err)
	}
}

// #endregion main

// #region run

type runOptions struct {
	maxSteps     int
	episodeSteps int
	alpha        float64
	gamma        float64
	epsilon      float64
	seed         int64
	heuristics   bool
	noveltyMode  string
	resume       bool
}

func run(scriptPath, dataDir, dbPath string, opts runOptions) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	script, err := game.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	emu := game.NewScripted(script)

	// Agent.
	aCfg := agent.DefaultConfig()
	aCfg.Alpha = opts.alpha
	aCfg.Gamma = opts.gamma
	aCfg.Epsilon = opts.epsilon
	aCfg.TablePath = dataDir + "/q_table.json"

	lCfg := trainer.DefaultConfig()
	lCfg.Edition = script.Edition
	lCfg.MaxSteps = opts.maxSteps
	lCfg.EpisodeSteps = opts.episodeSteps
	lCfg.UseHeuristics = opts.heuristics
	lCfg.TablePath = aCfg.TablePath

	var ag *agent.Agent
	if opts.seed != 0 {
		ag = agent.NewWithSeed(lCfg.Actions, aCfg, opts.seed)
	} else {
		ag = agent.New(lCfg.Actions, aCfg)
	}
	if opts.resume {
		if err := ag.Load(); err != nil && !errors.Is(err, agent.ErrNoTable) {
			return fmt.Errorf("resume: %w", err)
		}
	}

	// Reward engine.
	nCfg := novelty.DefaultConfig()
	nCfg.Mode = novelty.Mode(opts.noveltyMode)
	if script.FrameH > 0 {
		nCfg.FrameH, nCfg.FrameW, nCfg.FrameC = script.FrameH, script.FrameW, script.FrameC
	}
	screens, err := novelty.New(nCfg)
	if err != nil {
		return fmt.Errorf("novelty index: %w", err)
	}
	grid := explore.NewGrid(explore.DefaultAnchors())
	engine := reward.NewEngine(emu, grid, screens, reward.DefaultConfig())

	// Sinks.
	if dbPath == "" {
		dbPath = dataDir + "/runs.db"
	}
	var runs *runlog.Store
	if dbPath != "off" {
		runs, err = runlog.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("run log: %w", err)
		}
		defer runs.Close()
	}

	recorder, err := stats.NewRecorder(stats.DefaultConfig(dataDir + "/stats.csv"))
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	defer recorder.Close()

	ckpt, err := checkpoint.NewStore(checkpoint.DefaultConfig(dataDir + "/checkpoints"))
	if err != nil {
		return fmt.Errorf("checkpoints: %w", err)
	}

	loop, err := trainer.New(trainer.Deps{
		Emulator:    emu,
		Agent:       ag,
		Engine:      engine,
		Checkpoints: ckpt,
		Runs:        runs,
		Stats:       recorder,
		Status:      status.NewWriter(dataDir + "/status.json"),
	}, lCfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loop.Run(ctx); err != nil {
		return err
	}

	summary := loop.Summary()
	fmt.Printf("run %s: %d steps, %d episode(s), total reward %s\n",
		summary.RunID, summary.Steps, summary.Episodes,
		strconv.FormatFloat(summary.TotalReward, 'f', 2, 64))
	return nil
}

// #endregion run

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
