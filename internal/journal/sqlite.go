package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fstx/internal/journal/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements the Journal interface using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens (creating and migrating if needed) a journal at
// the given path. path can be a file path or ":memory:" for an in-memory
// journal.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating journal schema: %w", err)
	}

	return &SQLiteJournal{db: db, path: path}, nil
}

func (j *SQLiteJournal) Begin(operation, detail string) (*Entry, error) {
	entry := &Entry{
		ID:        uuid.New().String(),
		Operation: operation,
		Detail:    detail,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := j.db.Exec(
		`INSERT INTO transactions (id, operation, detail, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Operation, entry.Detail, entry.Status, entry.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}
	return entry, nil
}

func (j *SQLiteJournal) Finish(id, status, errText string, dirs, files, noted int) error {
	res, err := j.db.Exec(
		`UPDATE transactions
		 SET status = ?, error = ?, dirs_staged = ?, files_staged = ?, files_noted = ?, finished_at = ?
		 WHERE id = ?`,
		status, errText, dirs, files, noted, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing transaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

func (j *SQLiteJournal) List(limit int) ([]*Entry, error) {
	rows, err := j.db.Query(
		`SELECT id, operation, detail, status, error, dirs_staged, files_staged, files_noted, started_at, finished_at
		 FROM transactions
		 ORDER BY started_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Operation, &e.Detail, &e.Status, &e.Error,
			&e.DirsStaged, &e.FilesStaged, &e.FilesNoted,
			&e.StartedAt, &e.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return entries, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Compile-time check that SQLiteJournal implements the Journal interface
var _ Journal = (*SQLiteJournal)(nil)
