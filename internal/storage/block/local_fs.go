package block

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalFS implements the Storage interface for local filesystem
type LocalFS struct {
	baseDir string
}

// NewLocalFS creates a new local filesystem storage
func NewLocalFS(config Config) (*LocalFS, error) {
	baseDir := config.BaseDir
	if baseDir == "" {
		return nil, fmt.Errorf("base_dir is required for local filesystem storage")
	}

	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalFS{
		baseDir: baseDir,
	}, nil
}

// Reader returns a reader for the specified path
func (lfs *LocalFS) Reader(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := lfs.getFullPath("open", path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "open", Path: path, Err: errNotFound}
		}
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}

	return file, nil
}

// Writer returns a writer for the specified path. Data goes to a temp file
// that replaces the target on Close, so a failed export never leaves a partial report.
func (lfs *LocalFS) Writer(ctx context.Context, path string) (io.WriteCloser, error) {
	fullPath, err := lfs.getFullPath("create", path)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "mkdir", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fullPath)+".*")
	if err != nil {
		return nil, &StorageError{Op: "create", Path: path, Err: err}
	}

	return &localWriter{file: tmp, target: fullPath, path: path}, nil
}

// Stat returns metadata for the specified path
func (lfs *LocalFS) Stat(ctx context.Context, path string) (*Metadata, error) {
	fullPath, err := lfs.getFullPath("stat", path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StorageError{Op: "stat", Path: path, Err: errNotFound}
		}
		return nil, &StorageError{Op: "stat", Path: path, Err: err}
	}

	return &Metadata{
		Path:    filepath.ToSlash(path),
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}, nil
}

// List returns metadata for all files whose relative path starts with prefix
func (lfs *LocalFS) List(ctx context.Context, prefix string) ([]*Metadata, error) {
	var results []*Metadata

	err := filepath.Walk(lfs.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		// Convert back to relative path
		relPath, err := filepath.Rel(lfs.baseDir, path)
		if err != nil {
			return err
		}

		// Normalize path separators
		relPath = filepath.ToSlash(relPath)
		if !strings.HasPrefix(relPath, prefix) {
			return nil
		}

		results = append(results, &Metadata{
			Path:    relPath,
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
		return nil
	})

	if err != nil {
		if os.IsNotExist(err) {
			return []*Metadata{}, nil
		}
		return nil, &StorageError{Op: "list", Path: prefix, Err: err}
	}

	return results, nil
}

// Delete removes the file at the specified path
func (lfs *LocalFS) Delete(ctx context.Context, path string) error {
	fullPath, err := lfs.getFullPath("delete", path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return &StorageError{Op: "delete", Path: path, Err: errNotFound}
		}
		return &StorageError{Op: "delete", Path: path, Err: err}
	}

	return nil
}

// Health checks the health of the storage
func (lfs *LocalFS) Health(ctx context.Context) error {
	// Check if base directory is accessible
	info, err := os.Stat(lfs.baseDir)
	if err != nil {
		return fmt.Errorf("base directory not accessible: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("base path is not a directory")
	}

	// Try to create a temporary file to test write permissions
	file, err := os.CreateTemp(lfs.baseDir, ".health_check_*")
	if err != nil {
		return fmt.Errorf("cannot write to storage: %w", err)
	}
	file.Close()
	os.Remove(file.Name())

	return nil
}

// Location returns the absolute file path
func (lfs *LocalFS) Location(path string) string {
	fullPath, err := lfs.getFullPath("locate", path)
	if err != nil {
		return path
	}
	if abs, err := filepath.Abs(fullPath); err == nil {
		return abs
	}
	return fullPath
}

// Helper methods

func (lfs *LocalFS) getFullPath(op, path string) (string, error) {
	clean, err := cleanPath(op, path)
	if err != nil {
		return "", err
	}
	return filepath.Join(lfs.baseDir, filepath.FromSlash(clean)), nil
}

// localWriter commits its temp file on Close
type localWriter struct {
	file   *os.File
	target string
	path   string
	failed bool
}

func (w *localWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.failed = true
	}
	return n, err
}

func (w *localWriter) Close() error {
	if w.failed {
		w.file.Close()
		os.Remove(w.file.Name())
		return &StorageError{Op: "write", Path: w.path, Err: fmt.Errorf("write failed, report discarded")}
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.file.Name())
		return &StorageError{Op: "write", Path: w.path, Err: err}
	}
	if err := os.Rename(w.file.Name(), w.target); err != nil {
		os.Remove(w.file.Name())
		return &StorageError{Op: "commit", Path: w.path, Err: err}
	}
	return nil
}
