package fstx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by staging and lookup calls. They are wrapped
// with the offending path, so callers should test with errors.Is.
var (
	// ErrAlreadyStaged means the path is already registered in one of the
	// three staging collections. A path may be staged in only one role.
	ErrAlreadyStaged = errors.New("path already staged")

	// ErrNotStaged means a lookup named a path that was never staged.
	ErrNotStaged = errors.New("path not staged")

	// ErrNotFound means NoteFile named a path that is not an existing
	// regular file.
	ErrNotFound = errors.New("not an existing regular file")

	// ErrExists means StageFile or StageDir named a path that already
	// exists on disk.
	ErrExists = errors.New("path already exists")

	// ErrCommitted means the transaction was already consumed by Commit
	// or discarded by Close.
	ErrCommitted = errors.New("transaction already consumed")
)

// CommitError reports the commit phase step that failed. By the time the
// caller sees it, rollback has already restored the pre-commit state; the
// filesystem is unchanged from before the commit attempt.
type CommitError struct {
	Path string // target path that could not be committed
	Err  error  // underlying OS-level cause, preserved verbatim
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing %s: %v", e.Path, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// RollbackError reports an undo step that failed during compensation. This
// is the one condition where the filesystem may be left in neither the
// pre-commit nor the intended post-commit state, so it is surfaced instead
// of the commit failure that triggered the rollback. No automatic retry is
// attempted; recovery policy belongs to the caller.
type RollbackError struct {
	Op    string // undo operation that failed: "remove file", "restore file", "remove dir"
	Path  string
	Err   error
	Cause error // the commit failure that triggered the rollback
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %s %s: %v (while recovering from: %v)",
		e.Op, e.Path, e.Err, e.Cause)
}

func (e *RollbackError) Unwrap() error { return e.Err }
