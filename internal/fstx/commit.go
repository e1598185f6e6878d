package fstx

import (
	"fmt"
	"path/filepath"
)

// actionKind identifies a filesystem mutation recorded in the action log.
type actionKind int

const (
	actionDirCreated actionKind = iota
	actionFileReplaced
	actionFileCreated
)

// action is one applied mutation. The log drives rollback in reverse order,
// and only paths recorded here are ever touched by an undo.
type action struct {
	kind   actionKind
	path   string
	backup TempResource // backup of the original, set for actionFileReplaced
}

// Commit applies every staged entry to the real filesystem in three ordered
// phases: directories, noted files, new files, each in staging order. The
// first failure aborts the remaining work, rolls back everything already
// applied, and is returned as a *CommitError naming the target path and the
// underlying cause. If an undo step itself fails, a *RollbackError is
// returned instead and the filesystem may be left partially applied.
//
// Commit consumes the transaction: success or failure, no further staging
// or committing is possible afterwards.
func (t *Tx) Commit() error {
	if t.done {
		return ErrCommitted
	}
	t.done = true

	log := make([]action, 0, len(t.newDirs)+len(t.noted)+len(t.newFiles))

	cerr := t.apply(&log)
	if cerr == nil {
		t.cleanup(log)
		t.logger.Info("commit complete",
			"dirs", len(t.newDirs), "replaced", len(t.noted), "created", len(t.newFiles))
		return nil
	}

	t.logger.Error("commit failed, rolling back",
		"path", cerr.Path, "cause", cerr.Err, "applied", len(log))
	if rberr := t.rollback(log, cerr); rberr != nil {
		t.logger.Error("rollback failed", "op", rberr.Op, "path", rberr.Path, "cause", rberr.Err)
		return rberr
	}
	if err := t.releaseAll(); err != nil {
		t.logger.Warn("releasing temp files", "error", err)
	}
	return cerr
}

// apply runs the three commit phases, recording every applied action in log.
func (t *Tx) apply(log *[]action) *CommitError {
	// Phase 1: directories. Non-recursive creation, so a missing parent
	// fails here unless it was staged (and therefore created) earlier.
	for _, dir := range t.newDirs {
		if err := t.fsys.Mkdir(dir); err != nil {
			return &CommitError{Path: dir, Err: err}
		}
		*log = append(*log, action{kind: actionDirCreated, path: dir})
		t.logger.Debug("created dir", "path", dir)
	}

	// Phase 2: noted files. Capture a backup next to the original before
	// the replace; without it the replace could not be undone.
	for _, e := range t.noted {
		backup, err := t.captureBackup(e.target)
		if err != nil {
			return &CommitError{Path: e.target, Err: err}
		}
		if err := t.fsys.ReplaceFile(e.temp.Path(), e.target); err != nil {
			backup.Release()
			return &CommitError{Path: e.target, Err: err}
		}
		*log = append(*log, action{kind: actionFileReplaced, path: e.target, backup: backup})
		t.logger.Debug("replaced file", "path", e.target)
	}

	// Phase 3: new files. The temp resource moves into place; a missing
	// parent directory is the common failure mode here.
	for _, e := range t.newFiles {
		if err := t.fsys.MoveFile(e.temp.Path(), e.target); err != nil {
			return &CommitError{Path: e.target, Err: err}
		}
		*log = append(*log, action{kind: actionFileCreated, path: e.target})
		t.logger.Debug("created file", "path", e.target)
	}

	return nil
}

// captureBackup copies the current content of path into a temp file in the
// same directory, so restoring it is a same-filesystem rename.
func (t *Tx) captureBackup(path string) (TempResource, error) {
	backup, err := t.temps.NewIn(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("allocating backup: %w", err)
	}
	if err := t.fsys.CopyFile(path, backup.Path()); err != nil {
		backup.Release()
		return nil, fmt.Errorf("capturing backup: %w", err)
	}
	return backup, nil
}

// rollback undoes the applied actions in strict reverse order: files
// created inside a new directory are removed before the directory itself,
// so the directory is empty again when its turn comes. Only paths in the
// log are touched; staged entries the commit never reached stay untouched.
func (t *Tx) rollback(log []action, cause *CommitError) *RollbackError {
	for i := len(log) - 1; i >= 0; i-- {
		a := log[i]
		switch a.kind {
		case actionFileCreated:
			if err := t.fsys.RemoveFile(a.path); err != nil {
				return &RollbackError{Op: "remove file", Path: a.path, Err: err, Cause: cause}
			}
		case actionFileReplaced:
			if err := t.fsys.MoveFile(a.backup.Path(), a.path); err != nil {
				return &RollbackError{Op: "restore file", Path: a.path, Err: err, Cause: cause}
			}
		case actionDirCreated:
			if err := t.fsys.RemoveDir(a.path); err != nil {
				return &RollbackError{Op: "remove dir", Path: a.path, Err: err, Cause: cause}
			}
		}
		t.logger.Debug("rolled back", "path", a.path)
	}
	return nil
}

// cleanup discards backups and spent temp resources after a full success.
// New-file temps were moved into place and noted-file content was copied,
// so nothing here touches a real path.
func (t *Tx) cleanup(log []action) {
	for _, a := range log {
		if a.backup != nil {
			a.backup.Release()
		}
	}
	if err := t.releaseAll(); err != nil {
		t.logger.Warn("releasing temp files", "error", err)
	}
}
