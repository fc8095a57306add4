package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StagingDir holds files while they are written. It lives under the root so
// finished files can be linked into place on the same filesystem.
const StagingDir = ".staging"

type FileStorage interface {
	Save(ctx context.Context, path string, data io.Reader) error
	Exists(path string) bool
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

// Save writes data to a staging file and links it into place, so readers
// only ever see complete files. An existing file at path is never replaced:
// Save fails with an error matching os.ErrExist instead.
func (s *fileStorage) Save(ctx context.Context, path string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, path)
	staging := filepath.Join(s.basePath, StagingDir)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(staging, 0700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(staging, ".upload-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// last point where the caller can still back out without leaving a file
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.Link(tmp.Name(), fullPath)
}

// Exists reports whether path is a regular file under the root.
func (s *fileStorage) Exists(path string) bool {
	info, err := os.Stat(filepath.Join(s.basePath, path))
	return err == nil && info.Mode().IsRegular()
}
