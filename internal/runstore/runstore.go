// Package runstore keeps a sqlite history of headless autopilot runs.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at TEXT NOT NULL,
    seed INTEGER NOT NULL,
    mode TEXT NOT NULL,
    duration_s REAL NOT NULL,
    outcome TEXT NOT NULL,
    level INTEGER NOT NULL,
    peak_heat REAL NOT NULL,
    avg_heat REAL NOT NULL,
    peak_population INTEGER NOT NULL,
    loot_collected INTEGER NOT NULL,
    loot_stashed INTEGER NOT NULL,
    boss_kills INTEGER NOT NULL,
    escalations INTEGER NOT NULL,
    player_level INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_recorded ON runs(recorded_at);
`

// Run is one finished headless session.
type Run struct {
	ID             int64
	RecordedAt     time.Time
	Seed           int64
	Mode           string
	Duration       float64
	Outcome        string
	Level          int
	PeakHeat       float64
	AvgHeat        float64
	PeakPopulation int
	LootCollected  int
	LootStashed    int
	BossKills      int
	Escalations    int
	PlayerLevel    int
}

// Store is a single-connection sqlite run history.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) the database at path, creating parent dirs.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("runstore: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("runstore: create dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runstore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("runstore: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaV1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runstore: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts r and returns its row id. A zero RecordedAt is stamped now.
func (s *Store) Record(ctx context.Context, r Run) (int64, error) {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (recorded_at, seed, mode, duration_s, outcome, level,
			peak_heat, avg_heat, peak_population, loot_collected, loot_stashed,
			boss_kills, escalations, player_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RecordedAt.UTC().Format(time.RFC3339Nano), r.Seed, r.Mode, r.Duration, r.Outcome, r.Level,
		r.PeakHeat, r.AvgHeat, r.PeakPopulation, r.LootCollected, r.LootStashed,
		r.BossKills, r.Escalations, r.PlayerLevel,
	)
	if err != nil {
		return 0, fmt.Errorf("runstore: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("runstore: last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recorded_at, seed, mode, duration_s, outcome, level,
			peak_heat, avg_heat, peak_population, loot_collected, loot_stashed,
			boss_kills, escalations, player_level
		FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("runstore: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r  Run
			at string
		)
		if err := rows.Scan(&r.ID, &at, &r.Seed, &r.Mode, &r.Duration, &r.Outcome, &r.Level,
			&r.PeakHeat, &r.AvgHeat, &r.PeakPopulation, &r.LootCollected, &r.LootStashed,
			&r.BossKills, &r.Escalations, &r.PlayerLevel); err != nil {
			return nil, fmt.Errorf("runstore: scan run: %w", err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("runstore: iterate runs: %w", err)
	}
	return out, nil
}
