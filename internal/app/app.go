package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"fstx/internal/config"
	"fstx/internal/fstx"
	"fstx/internal/fsys"
	"fstx/internal/journal"
	"fstx/internal/plan"
	"fstx/internal/tempfile"
)

// App is the application layer between the CLI and the transaction engine.
// It constructs all dependencies from config, exposes high-level operations
// over plan files, and manages the journal lifecycle on Close.
type App struct {
	cfg     *config.Config
	journal journal.Journal
	fs      fstx.Filesystem
	temps   fstx.TempAllocator
	logger  fstx.Logger
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. The caller must
// call Close when done.
func NewApp(cfg *config.Config) (*App, error) {
	j, err := journal.NewFromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("creating journal: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &App{
		cfg:     cfg,
		journal: j,
		fs:      fsys.NewOSFilesystem(),
		temps:   tempfile.NewManager(cfg.TempDir),
		logger:  &slogAdapter{l: logger},
		logFile: logFile,
	}, nil
}

// ApplyResult summarizes a committed plan.
type ApplyResult struct {
	TxID  string
	Dirs  int
	Files int
	Edits int
}

// ApplyPlan loads the plan file at path and commits it as one transaction,
// recording the attempt and its outcome in the journal. On a commit failure
// the filesystem is already rolled back by the time the error returns.
func (a *App) ApplyPlan(path string) (*ApplyResult, error) {
	p, err := plan.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	entry, err := a.journal.Begin("Apply", path)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}
	a.logger.Info("applying plan", "plan", path, "tx", entry.ID)

	tx := fstx.NewWithCapacity(a.fs, a.temps, a.logger, len(p.Edits), len(p.Files), len(p.Dirs))
	defer tx.Close()

	if err := p.Stage(tx); err != nil {
		a.finish(entry.ID, journal.StatusFailed, err, tx)
		return nil, fmt.Errorf("staging plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		status := journal.StatusFailed
		var rberr *fstx.RollbackError
		if errors.As(err, &rberr) {
			status = journal.StatusRollbackFailed
		}
		a.finish(entry.ID, status, err, tx)
		return nil, err
	}

	a.finish(entry.ID, journal.StatusSuccess, nil, tx)
	return &ApplyResult{
		TxID:  entry.ID,
		Dirs:  len(p.Dirs),
		Files: len(p.Files),
		Edits: len(p.Edits),
	}, nil
}

// finish records the terminal journal state for an entry. Journal write
// failures are logged, not surfaced: the filesystem outcome already
// happened and is what the caller needs to hear about.
func (a *App) finish(id, status string, cause error, tx *fstx.Tx) {
	errText := ""
	if cause != nil {
		errText = cause.Error()
	}
	noted, files, dirs := tx.Counts()
	if err := a.journal.Finish(id, status, errText, dirs, files, noted); err != nil {
		a.logger.Warn("finishing journal entry", "id", id, "error", err)
	}
}

// History returns the most recent apply operations, newest first.
func (a *App) History(limit int) ([]*journal.Entry, error) {
	return a.journal.List(limit)
}

// Close closes the journal and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
