// Package runlog records training runs, per-step decisions, and game
// milestones in SQLite for later inspection and replay-fixture export.
package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	rom_edition   TEXT NOT NULL,
	started_at    TEXT NOT NULL,
	finished_at   TEXT,
	total_steps   INTEGER NOT NULL DEFAULT 0,
	total_reward  REAL NOT NULL DEFAULT 0,
	config_json   TEXT
);

CREATE TABLE IF NOT EXISTS decisions (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	step           INTEGER NOT NULL,
	state_key      TEXT NOT NULL,
	action         TEXT NOT NULL,
	was_exploration INTEGER NOT NULL,
	reward         REAL NOT NULL,
	breakdown_json TEXT,
	map_id         INTEGER NOT NULL,
	pos_x          INTEGER NOT NULL,
	pos_y          INTEGER NOT NULL,
	created_at     TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	step        INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_decisions_run_step ON decisions(run_id, step);
CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
`

// #endregion schema

// #region types

// Run is one training session.
type Run struct {
	RunID       string    `json:"run_id"`
	ROMEdition  string    `json:"rom_edition"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	TotalSteps  int       `json:"total_steps"`
	TotalReward float64   `json:"total_reward"`
	ConfigJSON  string    `json:"config_json,omitempty"`
}

// Decision is one step of the training loop: the action taken and the
// reward that followed.
type Decision struct {
	RunID          string             `json:"run_id"`
	Step           int                `json:"step"`
	StateKey       string             `json:"state_key"`
	Action         string             `json:"action"`
	WasExploration bool               `json:"was_exploration"`
	Reward         float64            `json:"reward"`
	Breakdown      map[string]float64 `json:"breakdown,omitempty"`
	MapID          int                `json:"map_id"`
	X              int                `json:"x"`
	Y              int                `json:"y"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Event marks a game milestone (badge earned, death, new location).
type Event struct {
	RunID     string    `json:"run_id"`
	Step      int       `json:"step"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion types

// #region store-struct

// Store manages run records in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region start-run

// StartRun registers a new run and returns its identifier.
func (s *Store) StartRun(romEdition string, config any) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var cfgPtr interface{}
	if config != nil {
		raw, err := json.Marshal(config)
		if err != nil {
			return "", fmt.Errorf("marshal run config: %w", err)
		}
		cfgPtr = string(raw)
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, rom_edition, started_at, config_json)
		 VALUES (?, ?, ?, ?)`,
		id, romEdition, now.Format(time.RFC3339Nano), cfgPtr,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// #endregion start-run

// #region finish-run

// FinishRun stamps the run's end time and final totals.
func (s *Store) FinishRun(runID string, totalSteps int, totalReward float64) error {
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, total_steps = ?, total_reward = ?
		 WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), totalSteps, totalReward, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// #endregion finish-run

// #region log-decision

// LogDecision appends one step record to the run.
func (s *Store) LogDecision(d Decision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	var breakdownPtr interface{}
	if d.Breakdown != nil {
		raw, err := json.Marshal(d.Breakdown)
		if err != nil {
			return fmt.Errorf("marshal breakdown: %w", err)
		}
		breakdownPtr = string(raw)
	}

	explorationFlag := 0
	if d.WasExploration {
		explorationFlag = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO decisions (run_id, step, state_key, action, was_exploration, reward, breakdown_json, map_id, pos_x, pos_y, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Step, d.StateKey, d.Action, explorationFlag, d.Reward,
		breakdownPtr, d.MapID, d.X, d.Y, d.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region log-event

// LogEvent records a game milestone.
func (s *Store) LogEvent(e Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO events (run_id, step, kind, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Step, e.Kind, nullIfEmpty(e.Detail), e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion log-event

// #region list-runs

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, rom_edition, started_at, finished_at, total_steps, total_reward, config_json
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedStr string
		var finishedStr sql.NullString
		var cfgJSON sql.NullString

		if err := rows.Scan(&r.RunID, &r.ROMEdition, &startedStr, &finishedStr, &r.TotalSteps, &r.TotalReward, &cfgJSON); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		if finishedStr.Valid {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedStr.String)
		}
		if cfgJSON.Valid {
			r.ConfigJSON = cfgJSON.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// #endregion list-runs

// #region decisions

// Decisions returns a run's step records in step order.
func (s *Store) Decisions(runID string, limit int) ([]Decision, error) {
	rows, err := s.db.Query(
		`SELECT run_id, step, state_key, action, was_exploration, reward, breakdown_json, map_id, pos_x, pos_y, created_at
		 FROM decisions WHERE run_id = ? ORDER BY step ASC LIMIT ?`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var explorationFlag int
		var breakdownJSON sql.NullString
		var createdStr string

		if err := rows.Scan(&d.RunID, &d.Step, &d.StateKey, &d.Action, &explorationFlag, &d.Reward, &breakdownJSON, &d.MapID, &d.X, &d.Y, &createdStr); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.WasExploration = explorationFlag != 0
		if breakdownJSON.Valid {
			if err := json.Unmarshal([]byte(breakdownJSON.String), &d.Breakdown); err != nil {
				return nil, fmt.Errorf("unmarshal breakdown: %w", err)
			}
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// #endregion decisions

// #region events

// Events returns a run's milestones in step order.
func (s *Store) Events(runID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT run_id, step, kind, detail, created_at
		 FROM events WHERE run_id = ? ORDER BY step ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		var createdStr string

		if err := rows.Scan(&e.RunID, &e.Step, &e.Kind, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, e)
	}
	return events, rows.Err()
}

// #endregion events

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
