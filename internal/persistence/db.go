// Package persistence provides the SQLite-backed run archive: every
// completed simulation is stored with its configuration, trajectory, and
// benchmark report so past runs can be listed and re-analyzed.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/evacsim/internal/config"
	"github.com/talgya/evacsim/internal/report"
	"github.com/talgya/evacsim/internal/sim"
)

// ErrNotFound is returned when a run id does not exist in the archive.
var ErrNotFound = errors.New("run not found")

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		deadline INTEGER NOT NULL,
		total_agents INTEGER NOT NULL,
		total_steps INTEGER NOT NULL,
		total_evacuated INTEGER NOT NULL,
		total_deaths INTEGER NOT NULL,
		survival_rate REAL NOT NULL,
		hazard INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		trajectory_json TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunSummary is the list view of an archived run.
type RunSummary struct {
	ID             string  `db:"id" json:"id"`
	CreatedAt      string  `db:"created_at" json:"createdAt"`
	Width          int     `db:"width" json:"width"`
	Height         int     `db:"height" json:"height"`
	Deadline       int     `db:"deadline" json:"deadline"`
	TotalAgents    int     `db:"total_agents" json:"totalAgents"`
	TotalSteps     int     `db:"total_steps" json:"totalSteps"`
	TotalEvacuated int     `db:"total_evacuated" json:"totalEvacuated"`
	TotalDeaths    int     `db:"total_deaths" json:"totalDeaths"`
	SurvivalRate   float64 `db:"survival_rate" json:"survivalRate"`
	Hazard         bool    `db:"hazard" json:"hazard"`
}

// Run is a fully hydrated archived run.
type Run struct {
	RunSummary
	Config     *config.Config  `json:"config"`
	Trajectory *sim.Trajectory `json:"trajectory"`
	Report     *report.Report  `json:"report"`
}

// SaveRun archives a completed run and returns its generated id.
func (db *DB) SaveRun(cfg *config.Config, traj *sim.Trajectory, rep *report.Report) (string, error) {
	id := uuid.NewString()

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	trajJSON, err := json.Marshal(traj)
	if err != nil {
		return "", fmt.Errorf("marshal trajectory: %w", err)
	}
	repJSON, err := json.Marshal(rep)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	ov := rep.SimulationOverview
	hazard := 0
	if cfg.Environment.Hazard != nil {
		hazard = 1
	}

	_, err = db.conn.Exec(`INSERT INTO runs
		(id, created_at, width, height, deadline, total_agents, total_steps,
		 total_evacuated, total_deaths, survival_rate, hazard,
		 config_json, trajectory_json, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339),
		cfg.Environment.Width, cfg.Environment.Height, cfg.Environment.Deadline,
		ov.TotalAgents, ov.TotalSteps, ov.TotalEvacuated, ov.TotalDeaths,
		ov.SurvivalRate, hazard,
		string(cfgJSON), string(trajJSON), string(repJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	slog.Info("run archived", "id", id, "steps", ov.TotalSteps, "evacuated", ov.TotalEvacuated)
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []RunSummary
	err := db.conn.Select(&runs, `SELECT
		id, created_at, width, height, deadline, total_agents, total_steps,
		total_evacuated, total_deaths, survival_rate, hazard
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// GetRun loads one archived run with its config, trajectory, and report.
func (db *DB) GetRun(id string) (*Run, error) {
	var row struct {
		RunSummary
		ConfigJSON     string `db:"config_json"`
		TrajectoryJSON string `db:"trajectory_json"`
		ReportJSON     string `db:"report_json"`
	}
	err := db.conn.Get(&row, `SELECT
		id, created_at, width, height, deadline, total_agents, total_steps,
		total_evacuated, total_deaths, survival_rate, hazard,
		config_json, trajectory_json, report_json
		FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run := &Run{RunSummary: row.RunSummary}
	if err := json.Unmarshal([]byte(row.ConfigJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("parse stored config: %w", err)
	}
	if err := json.Unmarshal([]byte(row.TrajectoryJSON), &run.Trajectory); err != nil {
		return nil, fmt.Errorf("parse stored trajectory: %w", err)
	}
	if err := json.Unmarshal([]byte(row.ReportJSON), &run.Report); err != nil {
		return nil, fmt.Errorf("parse stored report: %w", err)
	}
	return run, nil
}
