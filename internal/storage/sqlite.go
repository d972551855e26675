// Package storage provides SQLite-based persistence for match results.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/pong-arena/internal/match"
)

// Store manages the SQLite database connection for result persistence.
type Store struct {
	db *sql.DB
}

// ResultEntry is one persisted match outcome.
type ResultEntry struct {
	ID          int64
	MatchID     string
	Mode        string
	WinnerID    string
	WinnerName  string
	LoserID     string
	LoserName   string
	WinnerScore int
	LoserScore  int
	Duration    int // seconds
	CreatedAt   time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS match_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL UNIQUE,
			mode TEXT NOT NULL,
			winner_id TEXT NOT NULL,
			winner_name TEXT NOT NULL,
			loser_id TEXT NOT NULL,
			loser_name TEXT NOT NULL,
			winner_score INTEGER NOT NULL DEFAULT 0,
			loser_score INTEGER NOT NULL DEFAULT 0,
			duration_secs INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_match_results_mode ON match_results(mode);
		CREATE INDEX IF NOT EXISTS idx_match_results_winner ON match_results(winner_id);
		CREATE INDEX IF NOT EXISTS idx_match_results_loser ON match_results(loser_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveResult records a finished match. Returns the ID of the inserted record.
func (s *Store) SaveResult(e ResultEntry) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO match_results
		 (match_id, mode, winner_id, winner_name, loser_id, loser_name, winner_score, loser_score, duration_secs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MatchID,
		e.Mode,
		e.WinnerID,
		e.WinnerName,
		e.LoserID,
		e.LoserName,
		e.WinnerScore,
		e.LoserScore,
		e.Duration,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// ResultByMatchID retrieves a single result by its match ID.
// Returns nil when no such match was recorded.
func (s *Store) ResultByMatchID(matchID string) (*ResultEntry, error) {
	var e ResultEntry
	var createdAt any

	err := s.db.QueryRow(
		`SELECT id, match_id, mode, winner_id, winner_name, loser_id, loser_name,
		        winner_score, loser_score, duration_secs, created_at
		 FROM match_results
		 WHERE match_id = ?`,
		matchID,
	).Scan(
		&e.ID,
		&e.MatchID,
		&e.Mode,
		&e.WinnerID,
		&e.WinnerName,
		&e.LoserID,
		&e.LoserName,
		&e.WinnerScore,
		&e.LoserScore,
		&e.Duration,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query result: %w", err)
	}

	e.CreatedAt = parseCreatedAt(createdAt)
	return &e, nil
}

// RecentResults retrieves the most recently recorded matches.
func (s *Store) RecentResults(limit int) ([]ResultEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, match_id, mode, winner_id, winner_name, loser_id, loser_name,
		        winner_score, loser_score, duration_secs, created_at
		 FROM match_results
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// PlayerResults retrieves match history for a specific player.
func (s *Store) PlayerResults(playerID string, limit int) ([]ResultEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, match_id, mode, winner_id, winner_name, loser_id, loser_name,
		        winner_score, loser_score, duration_secs, created_at
		 FROM match_results
		 WHERE winner_id = ? OR loser_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		playerID, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query player results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// WinCount returns how many recorded matches the player has won.
func (s *Store) WinCount(playerID string) (int, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM match_results WHERE winner_id = ?",
		playerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot count wins: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]ResultEntry, error) {
	var results []ResultEntry
	for rows.Next() {
		var e ResultEntry
		var createdAt any

		if err := rows.Scan(
			&e.ID,
			&e.MatchID,
			&e.Mode,
			&e.WinnerID,
			&e.WinnerName,
			&e.LoserID,
			&e.LoserName,
			&e.WinnerScore,
			&e.LoserScore,
			&e.Duration,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		e.CreatedAt = parseCreatedAt(createdAt)
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return results, nil
}

// parseCreatedAt handles the driver returning either time.Time or a string.
func parseCreatedAt(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveMatchResult implements match.ResultReporter. This adapter lets the match
// loop report outcomes without a direct storage dependency.
func (s *Store) SaveMatchResult(r match.Result) error {
	_, err := s.SaveResult(ResultEntry{
		MatchID:     r.MatchID,
		Mode:        r.Mode.String(),
		WinnerID:    r.Winner.ID,
		WinnerName:  r.Winner.Name,
		LoserID:     r.Loser.ID,
		LoserName:   r.Loser.Name,
		WinnerScore: r.WinnerScore,
		LoserScore:  r.LoserScore,
		Duration:    int(r.Duration.Seconds()),
	})
	return err
}

// Ensure Store implements ResultReporter
var _ match.ResultReporter = (*Store)(nil)
