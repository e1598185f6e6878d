package fsys

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/google/renameio/v2"

	"fstx/internal/fstx"
)

// OSFilesystem is the real filesystem implementation of fstx.Filesystem.
// It performs actual filesystem operations using the os package, with
// renameio providing the atomic-replace primitive.
type OSFilesystem struct{}

// NewOSFilesystem creates a filesystem that operates on the real filesystem.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

// IsRegular reports whether path exists and is a regular file. Symlinks are
// not followed; a symlink to a file is not a regular file.
func (f *OSFilesystem) IsRegular(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Exists reports whether path exists, regardless of kind.
func (f *OSFilesystem) Exists(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Mkdir creates a single directory level. Unlike os.MkdirAll it fails when
// the parent is missing, which the commit ordering relies on.
func (f *OSFilesystem) Mkdir(path string) error {
	return os.Mkdir(path, 0755)
}

// MoveFile moves src to dst via rename, falling back to copy+remove when
// src and dst live on different filesystems.
func (f *OSFilesystem) MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyAcross(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyAcross copies src to dst across filesystem boundaries. On any failure
// the partial dst is removed so the move looks like it never started.
func copyAcross(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// ReplaceFile atomically replaces dst's content with src's content. The
// staged content is written to a sibling temp file and renamed over dst, so
// readers never observe a partial write. dst keeps its permissions.
func (f *OSFilesystem) ReplaceFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening staged content: %w", err)
	}
	defer in.Close()

	pending, err := renameio.NewPendingFile(dst, renameio.WithExistingPermissions())
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	if _, err := io.Copy(pending, in); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

// CopyFile copies src's content into dst, truncating dst first.
func (f *OSFilesystem) CopyFile(src, dst string) error {
	return copyAcross(src, dst)
}

// RemoveFile removes a single file.
func (f *OSFilesystem) RemoveFile(path string) error {
	return os.Remove(path)
}

// RemoveDir removes a directory. os.Remove refuses non-empty directories,
// which is exactly the guarantee rollback wants.
func (f *OSFilesystem) RemoveDir(path string) error {
	return os.Remove(path)
}

// Compile-time check that OSFilesystem implements fstx.Filesystem
var _ fstx.Filesystem = (*OSFilesystem)(nil)
