package tempfile

import (
	"fmt"
	"os"

	"fstx/internal/fstx"
)

// Manager allocates uniquely named temporary files for staging. Files are
// created exclusively (os.CreateTemp semantics), so two allocations never
// collide with each other or with an existing path.
type Manager struct {
	dir string // default directory for New; empty means the system temp dir
}

// NewManager creates a Manager allocating in dir. An empty dir means the
// system default temp directory.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// New allocates an empty temp file in the manager's default directory.
func (m *Manager) New() (fstx.TempResource, error) {
	return m.NewIn(m.dir)
}

// NewIn allocates an empty temp file inside dir.
func (m *Manager) NewIn(dir string) (fstx.TempResource, error) {
	f, err := os.CreateTemp(dir, "fstx-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	// The handle is not kept open: staged content is written by path, and
	// holding an fd would pin one open file per staged entry.
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return nil, fmt.Errorf("closing temp file: %w", err)
	}
	return &File{path: name}, nil
}

// File is an exclusively owned temporary file handed out by Manager.
type File struct {
	path     string
	released bool
}

// Path returns the location of the backing file.
func (f *File) Path() string { return f.path }

// Release removes the backing file. Idempotent, and tolerates the file
// having been renamed away by a commit.
func (f *File) Release() error {
	if f.released {
		return nil
	}
	f.released = true
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing temp file: %w", err)
	}
	return nil
}

// Compile-time checks
var (
	_ fstx.TempAllocator = (*Manager)(nil)
	_ fstx.TempResource  = (*File)(nil)
)
