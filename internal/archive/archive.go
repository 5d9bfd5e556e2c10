// Package archive stores cleared tasks in a local SQLite database so
// history survives after the session file forgets them.
package archive

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/worklens/worklens/internal/errors"
	"github.com/worklens/worklens/internal/logging"
	"github.com/worklens/worklens/internal/task"
)

const schema = `
CREATE TABLE IF NOT EXISTS archived_tasks (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	label TEXT,
	category TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME,
	elapsed_ns INTEGER NOT NULL,
	paused_ns INTEGER NOT NULL,
	auto_detected INTEGER NOT NULL,
	context_key TEXT,
	process_name TEXT,
	detected_url TEXT,
	detected_tab_title TEXT,
	detected_document_name TEXT,
	archived_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_archived_tasks_archived_at ON archived_tasks(archived_at);
`

// Record is one archived task row.
type Record struct {
	Task       *task.Task
	ArchivedAt time.Time
}

// Archive wraps the SQLite database holding cleared tasks.
type Archive struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *logging.Logger
}

// Open creates or opens the archive database at the given path,
// creating parent directories and the schema as needed.
func Open(path string, logger *logging.Logger) (*Archive, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithComponent("archive")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewStoreError("create archive directory", err).WithPath(path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStoreError("open archive", err).WithPath(path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewStoreError("open archive", err).WithPath(path)
	}

	// WAL and a busy timeout for concurrent readers; failure here is
	// not fatal.
	if _, err := db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
	`); err != nil {
		logger.Warn("archive pragmas failed", "error", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewStoreError("create archive schema", err).WithPath(path)
	}
	return &Archive{db: db, logger: logger}, nil
}

// Insert archives the given tasks in one transaction. Re-archiving an
// already archived ID overwrites the previous row.
func (a *Archive) Insert(tasks []*task.Task, archivedAt time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return errors.ErrArchiveClosed
	}
	if len(tasks) == 0 {
		return nil
	}

	tx, err := a.db.Begin()
	if err != nil {
		return errors.NewStoreError("begin archive transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO archived_tasks (
			id, name, label, category, start_time, end_time,
			elapsed_ns, paused_ns, auto_detected, context_key,
			process_name, detected_url, detected_tab_title,
			detected_document_name, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewStoreError("prepare archive insert", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		var end sql.NullTime
		if t.EndTime != nil {
			end = sql.NullTime{Time: t.EndTime.UTC(), Valid: true}
		}
		if _, err := stmt.Exec(
			t.ID, t.Name, t.Label, string(t.Category),
			t.StartTime.UTC(), end,
			int64(t.Elapsed), int64(t.PausedDuration), t.AutoDetected,
			t.ContextKey, t.ProcessName, t.DetectedURL,
			t.DetectedTabTitle, t.DetectedDocumentName,
			archivedAt.UTC(),
		); err != nil {
			return errors.NewStoreError("insert archived task", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("commit archive transaction", err)
	}
	a.logger.Info("tasks archived", "count", len(tasks))
	return nil
}

// List returns all archived tasks, newest archive batch first.
func (a *Archive) List() ([]Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, errors.ErrArchiveClosed
	}

	rows, err := a.db.Query(`
		SELECT id, name, label, category, start_time, end_time,
		       elapsed_ns, paused_ns, auto_detected, context_key,
		       process_name, detected_url, detected_tab_title,
		       detected_document_name, archived_at
		FROM archived_tasks
		ORDER BY archived_at DESC, start_time ASC`)
	if err != nil {
		return nil, errors.NewStoreError("query archive", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			t         task.Task
			category  string
			end       sql.NullTime
			elapsedNS int64
			pausedNS  int64
			archived  time.Time
		)
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Label, &category, &t.StartTime, &end,
			&elapsedNS, &pausedNS, &t.AutoDetected, &t.ContextKey,
			&t.ProcessName, &t.DetectedURL, &t.DetectedTabTitle,
			&t.DetectedDocumentName, &archived,
		); err != nil {
			return nil, errors.NewStoreError("scan archived task", err)
		}
		t.Category = task.Category(category)
		t.State = task.StateStopped
		if end.Valid {
			endTime := end.Time
			t.EndTime = &endTime
		}
		t.Elapsed = time.Duration(elapsedNS)
		t.PausedDuration = time.Duration(pausedNS)
		records = append(records, Record{Task: &t, ArchivedAt: archived})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("iterate archive", err)
	}
	return records, nil
}

// Count returns the number of archived tasks.
func (a *Archive) Count() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return 0, errors.ErrArchiveClosed
	}

	var n int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM archived_tasks`).Scan(&n); err != nil {
		return 0, errors.NewStoreError("count archive", err)
	}
	return n, nil
}

// Close releases the database. Further calls return ErrArchiveClosed.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
