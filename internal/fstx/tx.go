package fstx

import (
	"fmt"
	"path/filepath"
)

// role identifies which staging collection holds a path.
type role int

const (
	roleNoted role = iota
	roleNewFile
	roleNewDir
)

// fileEntry pairs a target path with the temp resource holding its staged
// content.
type fileEntry struct {
	target string
	temp   TempResource
}

// Tx stages filesystem mutations and applies them as a single unit: either
// every staged change takes effect, or the filesystem is left exactly as it
// was before staging began.
//
// Staging a file hands back the path of an empty temp file; write the
// desired final content into it, then call Commit. Until then no real path
// is touched. A Tx is single-use: Commit consumes it whether it succeeds or
// fails, and Close discards an uncommitted Tx without any filesystem effect
// beyond releasing its temp files. Always defer Close.
//
// A Tx is meant for exclusive use by one owner; it is not safe for
// concurrent mutation. Callers that share one must synchronize externally.
type Tx struct {
	fsys   Filesystem
	temps  TempAllocator
	logger Logger

	noted    []*fileEntry
	newFiles []*fileEntry
	newDirs  []string
	roles    map[string]role // target path -> collection, across all three

	done bool
}

// New creates an empty transaction.
func New(fsys Filesystem, temps TempAllocator, logger Logger) *Tx {
	return NewWithCapacity(fsys, temps, logger, 0, 0, 0)
}

// NewWithCapacity creates an empty transaction with pre-sized collections.
// The counts are a performance hint for callers that know the transaction
// shape in advance; they never affect correctness.
func NewWithCapacity(fsys Filesystem, temps TempAllocator, logger Logger, noted, newFiles, newDirs int) *Tx {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Tx{
		fsys:     fsys,
		temps:    temps,
		logger:   logger,
		noted:    make([]*fileEntry, 0, noted),
		newFiles: make([]*fileEntry, 0, newFiles),
		newDirs:  make([]string, 0, newDirs),
		roles:    make(map[string]role, noted+newFiles+newDirs),
	}
}

// normalize resolves path to a cleaned absolute path. Registering by
// absolute path is what makes two spellings of the same file collide in
// the uniqueness check.
func (t *Tx) normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return abs, nil
}

// NoteFile registers an existing regular file to be overwritten at commit.
// The returned path is an empty temp file; write the desired final content
// into it. The original file is untouched until Commit.
func (t *Tx) NoteFile(path string) (string, error) {
	if t.done {
		return "", ErrCommitted
	}
	target, err := t.normalize(path)
	if err != nil {
		return "", err
	}
	if _, ok := t.roles[target]; ok {
		return "", fmt.Errorf("%s: %w", target, ErrAlreadyStaged)
	}

	regular, err := t.fsys.IsRegular(target)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", target, err)
	}
	if !regular {
		return "", fmt.Errorf("%s: %w", target, ErrNotFound)
	}

	temp, err := t.temps.New()
	if err != nil {
		return "", fmt.Errorf("allocating temp file: %w", err)
	}

	t.noted = append(t.noted, &fileEntry{target: target, temp: temp})
	t.roles[target] = roleNoted
	t.logger.Debug("noted file", "path", target, "temp", temp.Path())
	return temp.Path(), nil
}

// StageFile registers a file to be created at commit. The path must not
// exist yet. The returned path is an empty temp file; write the desired
// content into it. If the target's parent directory does not exist either,
// stage it with StageDir before this entry's commit turn.
func (t *Tx) StageFile(path string) (string, error) {
	if t.done {
		return "", ErrCommitted
	}
	target, err := t.normalize(path)
	if err != nil {
		return "", err
	}
	if _, ok := t.roles[target]; ok {
		return "", fmt.Errorf("%s: %w", target, ErrAlreadyStaged)
	}

	exists, err := t.fsys.Exists(target)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", target, err)
	}
	if exists {
		return "", fmt.Errorf("%s: %w", target, ErrExists)
	}

	temp, err := t.temps.New()
	if err != nil {
		return "", fmt.Errorf("allocating temp file: %w", err)
	}

	t.newFiles = append(t.newFiles, &fileEntry{target: target, temp: temp})
	t.roles[target] = roleNewFile
	t.logger.Debug("staged new file", "path", target, "temp", temp.Path())
	return temp.Path(), nil
}

// StageDir registers a directory to be created at commit. The path must
// not exist yet. Creation is non-recursive: the parent must exist on disk
// by the time this entry's turn comes, either pre-existing or staged
// earlier in the same transaction.
func (t *Tx) StageDir(path string) error {
	if t.done {
		return ErrCommitted
	}
	target, err := t.normalize(path)
	if err != nil {
		return err
	}
	if _, ok := t.roles[target]; ok {
		return fmt.Errorf("%s: %w", target, ErrAlreadyStaged)
	}

	exists, err := t.fsys.Exists(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", target, ErrExists)
	}

	t.newDirs = append(t.newDirs, target)
	t.roles[target] = roleNewDir
	t.logger.Debug("staged new dir", "path", target)
	return nil
}

// NotedTemp returns the temp path backing a previously noted file.
func (t *Tx) NotedTemp(path string) (string, error) {
	return t.lookup(path, roleNoted, t.noted)
}

// StagedTemp returns the temp path backing a previously staged new file.
func (t *Tx) StagedTemp(path string) (string, error) {
	return t.lookup(path, roleNewFile, t.newFiles)
}

func (t *Tx) lookup(path string, want role, entries []*fileEntry) (string, error) {
	target, err := t.normalize(path)
	if err != nil {
		return "", err
	}
	if r, ok := t.roles[target]; ok && r == want {
		for _, e := range entries {
			if e.target == target {
				return e.temp.Path(), nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", target, ErrNotStaged)
}

// Counts returns the number of staged entries per collection: noted files,
// new files, new directories.
func (t *Tx) Counts() (noted, newFiles, newDirs int) {
	return len(t.noted), len(t.newFiles), len(t.newDirs)
}

// Close discards the transaction if it was never committed: every temp
// resource is released and no real path is touched. The effect is
// indistinguishable from nothing ever having been staged. Close is
// idempotent and returns nil after a Commit, so deferring it
// unconditionally is safe.
func (t *Tx) Close() error {
	if t.done {
		return nil
	}
	t.done = true
	t.logger.Debug("discarding transaction",
		"noted", len(t.noted), "new_files", len(t.newFiles), "new_dirs", len(t.newDirs))
	return t.releaseAll()
}

// releaseAll releases every staged temp resource. Resources already moved
// into place by a commit are gone; Release tolerates that.
func (t *Tx) releaseAll() error {
	var firstErr error
	for _, e := range t.noted {
		if err := e.temp.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, e := range t.newFiles {
		if err := e.temp.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
