package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"hometax_automation/domain/entities"
	"hometax_automation/domain/interfaces"
)

type fileRelocator struct {
	rename func(oldpath, newpath string) error
	remove func(name string) error
}

// NewRelocator - creates a relocator that renames and falls back to a verified copy
func NewRelocator() interfaces.Relocator {
	return &fileRelocator{
		rename: os.Rename,
		remove: os.Remove,
	}
}

// Relocate - moves src to dst; the source is deleted only after the copy is verified
func (r *fileRelocator) Relocate(src, dst string) (entities.RelocationMethod, error) {
	info, err := os.Stat(src)
	if err != nil {
		return entities.RelocationFailed, err
	}
	if !info.Mode().IsRegular() {
		return entities.RelocationFailed, fmt.Errorf("%s is not a regular file", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return entities.RelocationFailed, fmt.Errorf("failed to create destination directory: %w", err)
	}

	// rename replaces an existing file, so collisions are refused up front
	if _, err := os.Lstat(dst); err == nil {
		return entities.RelocationFailed, fmt.Errorf("%w: %s", entities.ErrDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return entities.RelocationFailed, fmt.Errorf("failed to check destination: %w", err)
	}

	renameErr := r.rename(src, dst)
	if renameErr == nil {
		return entities.RelocationMoved, nil
	}

	if err := copyFile(src, dst, info); err != nil {
		return entities.RelocationFailed, fmt.Errorf("rename failed (%v), copy failed: %w", renameErr, err)
	}

	if err := verifyCopy(dst, info); err != nil {
		os.Remove(dst)
		return entities.RelocationFailed, fmt.Errorf("rename failed (%v), copy not verified: %w", renameErr, err)
	}

	if err := r.remove(src); err != nil {
		// the copy is in place; keeping the source loses nothing
		return entities.RelocationCopied, nil
	}

	return entities.RelocationMoved, nil
}

// copyFile - copies content and modification time, removing a partial destination on failure
func copyFile(src, dst string, info os.FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// verifyCopy - checks the destination exists with the source size
func verifyCopy(dst string, info os.FileInfo) error {
	copied, err := os.Stat(dst)
	if err != nil {
		return err
	}
	if copied.Size() != info.Size() {
		return fmt.Errorf("size mismatch: %d != %d", copied.Size(), info.Size())
	}
	return nil
}
