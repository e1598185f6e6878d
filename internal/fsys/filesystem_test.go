package fsys

import (
	"os"
	"path/filepath"
	"testing"

	"fstx/internal/testutil"
)

func TestIsRegular(t *testing.T) {
	f := NewOSFilesystem()
	root := t.TempDir()

	t.Run("regular file", func(t *testing.T) {
		path := filepath.Join(root, "file.txt")
		testutil.WriteFile(t, path, "x")
		regular, err := f.IsRegular(path)
		if err != nil {
			t.Fatalf("IsRegular() error = %v", err)
		}
		if !regular {
			t.Error("IsRegular() = false, want true")
		}
	})

	t.Run("directory", func(t *testing.T) {
		regular, err := f.IsRegular(root)
		if err != nil {
			t.Fatalf("IsRegular() error = %v", err)
		}
		if regular {
			t.Error("IsRegular() = true for a directory")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		regular, err := f.IsRegular(filepath.Join(root, "missing"))
		if err != nil {
			t.Fatalf("IsRegular() error = %v", err)
		}
		if regular {
			t.Error("IsRegular() = true for a missing path")
		}
	})

	t.Run("symlink", func(t *testing.T) {
		target := filepath.Join(root, "target.txt")
		testutil.WriteFile(t, target, "x")
		link := filepath.Join(root, "link.txt")
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks not supported: %v", err)
		}
		regular, err := f.IsRegular(link)
		if err != nil {
			t.Fatalf("IsRegular() error = %v", err)
		}
		if regular {
			t.Error("IsRegular() = true for a symlink")
		}
	})
}

func TestMkdir(t *testing.T) {
	f := NewOSFilesystem()
	root := t.TempDir()

	t.Run("creates a single level", func(t *testing.T) {
		dir := filepath.Join(root, "dir1")
		if err := f.Mkdir(dir); err != nil {
			t.Fatalf("Mkdir() error = %v", err)
		}
		if !testutil.IsDir(t, dir) {
			t.Error("directory missing")
		}
	})

	t.Run("fails without parent", func(t *testing.T) {
		if err := f.Mkdir(filepath.Join(root, "a", "b")); err == nil {
			t.Error("Mkdir() succeeded with a missing parent")
		}
	})

	t.Run("fails on existing path", func(t *testing.T) {
		if err := f.Mkdir(root); err == nil {
			t.Error("Mkdir() succeeded on an existing path")
		}
	})
}

func TestMoveFile(t *testing.T) {
	f := NewOSFilesystem()
	root := t.TempDir()

	t.Run("moves the file", func(t *testing.T) {
		src := filepath.Join(root, "src.txt")
		dst := filepath.Join(root, "dst.txt")
		testutil.WriteFile(t, src, "payload")

		if err := f.MoveFile(src, dst); err != nil {
			t.Fatalf("MoveFile() error = %v", err)
		}
		if testutil.Exists(t, src) {
			t.Error("source still exists after move")
		}
		if got := testutil.ReadFile(t, dst); got != "payload" {
			t.Errorf("destination content = %q, want %q", got, "payload")
		}
	})

	t.Run("overwrites an existing destination", func(t *testing.T) {
		src := filepath.Join(root, "new.txt")
		dst := filepath.Join(root, "old.txt")
		testutil.WriteFile(t, src, "new")
		testutil.WriteFile(t, dst, "old")

		if err := f.MoveFile(src, dst); err != nil {
			t.Fatalf("MoveFile() error = %v", err)
		}
		if got := testutil.ReadFile(t, dst); got != "new" {
			t.Errorf("destination content = %q, want %q", got, "new")
		}
	})

	t.Run("fails when destination parent missing", func(t *testing.T) {
		src := filepath.Join(root, "src2.txt")
		testutil.WriteFile(t, src, "x")
		if err := f.MoveFile(src, filepath.Join(root, "nope", "dst.txt")); err == nil {
			t.Error("MoveFile() succeeded with a missing destination parent")
		}
	})
}

func TestReplaceFile(t *testing.T) {
	f := NewOSFilesystem()
	root := t.TempDir()

	t.Run("replaces content in place", func(t *testing.T) {
		src := filepath.Join(root, "staged.txt")
		dst := filepath.Join(root, "real.txt")
		testutil.WriteFile(t, src, "staged content")
		testutil.WriteFile(t, dst, "original content")

		if err := f.ReplaceFile(src, dst); err != nil {
			t.Fatalf("ReplaceFile() error = %v", err)
		}
		if got := testutil.ReadFile(t, dst); got != "staged content" {
			t.Errorf("content = %q, want %q", got, "staged content")
		}
		// The staged source is read, not consumed.
		if !testutil.Exists(t, src) {
			t.Error("source removed by replace")
		}
	})

	t.Run("keeps destination permissions", func(t *testing.T) {
		src := filepath.Join(root, "staged2.txt")
		dst := filepath.Join(root, "exec.sh")
		testutil.WriteFile(t, src, "#!/bin/sh\n")
		testutil.WriteFile(t, dst, "old")
		if err := os.Chmod(dst, 0755); err != nil {
			t.Fatal(err)
		}

		if err := f.ReplaceFile(src, dst); err != nil {
			t.Fatalf("ReplaceFile() error = %v", err)
		}
		info, err := os.Stat(dst)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0755 {
			t.Errorf("permissions = %v, want 0755", info.Mode().Perm())
		}
	})

	t.Run("fails when source missing", func(t *testing.T) {
		dst := filepath.Join(root, "real2.txt")
		testutil.WriteFile(t, dst, "x")
		if err := f.ReplaceFile(filepath.Join(root, "missing"), dst); err == nil {
			t.Error("ReplaceFile() succeeded with a missing source")
		}
		if got := testutil.ReadFile(t, dst); got != "x" {
			t.Errorf("destination changed by failed replace: %q", got)
		}
	})
}

func TestCopyFile(t *testing.T) {
	f := NewOSFilesystem()
	root := t.TempDir()

	src := filepath.Join(root, "src.txt")
	dst := filepath.Join(root, "dst.txt")
	testutil.WriteFile(t, src, "copy me")
	testutil.WriteFile(t, dst, "overwritten")

	if err := f.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}
	if got := testutil.ReadFile(t, dst); got != "copy me" {
		t.Errorf("destination content = %q, want %q", got, "copy me")
	}
	if got := testutil.ReadFile(t, src); got != "copy me" {
		t.Errorf("source content = %q, want unchanged", got)
	}
}

func TestRemoveDir(t *testing.T) {
	f := NewOSFilesystem()
	root := t.TempDir()

	t.Run("removes an empty directory", func(t *testing.T) {
		dir := filepath.Join(root, "empty")
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := f.RemoveDir(dir); err != nil {
			t.Fatalf("RemoveDir() error = %v", err)
		}
		if testutil.Exists(t, dir) {
			t.Error("directory still exists")
		}
	})

	t.Run("refuses a non-empty directory", func(t *testing.T) {
		dir := filepath.Join(root, "full")
		testutil.WriteFile(t, filepath.Join(dir, "file.txt"), "x")
		if err := f.RemoveDir(dir); err == nil {
			t.Error("RemoveDir() succeeded on a non-empty directory")
		}
		if !testutil.Exists(t, filepath.Join(dir, "file.txt")) {
			t.Error("directory content lost")
		}
	})
}
