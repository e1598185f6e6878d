package fstx

// TempResource is an exclusively owned, uniquely named temporary file used
// as a staging area for content destined for a real path. Ownership moves
// to the real filesystem only when a commit applies the entry; otherwise
// the resource is released when the transaction is discarded.
type TempResource interface {
	// Path returns the location of the backing file.
	Path() string

	// Release removes the backing file. It is idempotent and tolerates
	// the file having been moved away by a commit.
	Release() error
}

// TempAllocator hands out temp resources. Each staged file entry owns
// exactly one; resources are never shared between entries.
type TempAllocator interface {
	// New allocates an empty temp resource in the allocator's default
	// directory.
	New() (TempResource, error)

	// NewIn allocates an empty temp resource inside dir. Backups are
	// placed next to their originals this way, so restoring one is a
	// same-filesystem rename.
	NewIn(dir string) (TempResource, error)
}
