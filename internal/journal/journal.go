package journal

import (
	"database/sql"
	"time"
)

// Entry statuses. An entry is created as StatusRunning and finished with
// one of the terminal statuses.
const (
	StatusRunning        = "running"
	StatusSuccess        = "success"
	StatusFailed         = "failed"          // commit failed, rollback restored the pre-commit state
	StatusRollbackFailed = "rollback_failed" // an undo step failed; the filesystem may be partially applied
)

// Entry is one recorded apply operation.
type Entry struct {
	ID          string
	Operation   string
	Detail      string
	Status      string
	Error       string
	DirsStaged  int64
	FilesStaged int64
	FilesNoted  int64
	StartedAt   time.Time
	FinishedAt  sql.NullTime
}

// Journal records transaction apply attempts and their outcomes.
type Journal interface {
	// Begin records a new running entry and returns it.
	Begin(operation, detail string) (*Entry, error)

	// Finish marks an entry with its terminal status, error text and
	// staged-entry counts.
	Finish(id, status, errText string, dirs, files, noted int) error

	// List returns the most recent entries, newest first.
	List(limit int) ([]*Entry, error)

	Close() error
}
