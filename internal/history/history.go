package history

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    command     TEXT NOT NULL,
    work_dir    TEXT NOT NULL DEFAULT '',
    exit_code   INTEGER,
    timed_out   INTEGER NOT NULL DEFAULT 0,
    dismissed   INTEGER NOT NULL DEFAULT 0,
    truncated   INTEGER NOT NULL DEFAULT 0,
    output_size INTEGER NOT NULL DEFAULT 0,
    started_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps a SQLite database recording finished sessions.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at $XDG_STATE_HOME/ptyshell/history.db.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateHome, "ptyshell")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for safe concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	// Run migrations (ignore errors for already-existing columns)
	for _, m := range []string{
		"ALTER TABLE runs ADD COLUMN output_size INTEGER NOT NULL DEFAULT 0",
	} {
		db.Exec(m) //nolint:errcheck
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is one recorded session.
type Run struct {
	ID         string
	Command    string
	WorkDir    string
	ExitCode   *int
	TimedOut   bool
	Dismissed  bool
	Truncated  bool
	OutputSize int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Record inserts a finished session and returns its id.
func (s *Store) Record(r Run) (string, error) {
	id := uuid.NewString()
	var exitCode sql.NullInt64
	if r.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*r.ExitCode), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, command, work_dir, exit_code, timed_out, dismissed, truncated, output_size, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, id, r.Command, r.WorkDir, exitCode,
		boolInt(r.TimedOut), boolInt(r.Dismissed), boolInt(r.Truncated),
		r.OutputSize, r.StartedAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return "", err
	}
	return id, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, command, work_dir, exit_code, timed_out, dismissed, truncated, output_size, started_at, finished_at
		FROM runs
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		var r Run
		var exitCode sql.NullInt64
		var timedOut, dismissed, truncated int
		var startedAt, finishedAt string
		if err := rows.Scan(&r.ID, &r.Command, &r.WorkDir, &exitCode,
			&timedOut, &dismissed, &truncated, &r.OutputSize,
			&startedAt, &finishedAt); err != nil {
			return nil, err
		}
		if exitCode.Valid {
			code := int(exitCode.Int64)
			r.ExitCode = &code
		}
		r.TimedOut = timedOut == 1
		r.Dismissed = dismissed == 1
		r.Truncated = truncated == 1
		r.StartedAt, _ = time.Parse("2006-01-02 15:04:05", startedAt)
		r.FinishedAt, _ = time.Parse("2006-01-02 15:04:05", finishedAt)
		result = append(result, r)
	}
	return result, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
