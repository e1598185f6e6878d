package fstx

// Filesystem provides the primitives the transaction engine needs.
// It abstracts file access to enable testing without touching the real
// filesystem; the OS-backed implementation lives in internal/fsys.
type Filesystem interface {
	// IsRegular reports whether path exists and is a regular file.
	IsRegular(path string) (bool, error)

	// Exists reports whether path exists, regardless of kind.
	Exists(path string) (bool, error)

	// Mkdir creates a single directory level. It fails if the parent is
	// missing or the path already exists.
	Mkdir(path string) error

	// MoveFile atomically moves src to dst. Implementations may fall back
	// to copy+remove when src and dst are on different filesystems.
	MoveFile(src, dst string) error

	// ReplaceFile atomically replaces dst's content with src's content.
	// dst must already exist; readers never observe a partial write.
	ReplaceFile(src, dst string) error

	// CopyFile copies src's content into dst, truncating dst first.
	CopyFile(src, dst string) error

	// RemoveFile removes a single file.
	RemoveFile(path string) error

	// RemoveDir removes a directory, failing if it is not empty.
	RemoveDir(path string) error
}
