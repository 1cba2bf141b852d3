package block

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Storage is where exported reports are kept
type Storage interface {
	Reader(ctx context.Context, path string) (io.ReadCloser, error)
	// Writer returns a writer whose Close commits the object
	Writer(ctx context.Context, path string) (io.WriteCloser, error)

	Stat(ctx context.Context, path string) (*Metadata, error)
	List(ctx context.Context, prefix string) ([]*Metadata, error)
	Delete(ctx context.Context, path string) error

	Health(ctx context.Context) error
	// Location describes where path lives, for user-facing messages
	Location(path string) string
}

// Metadata represents file metadata
type Metadata struct {
	Path        string
	Size        int64
	ModTime     int64
	ETag        string
	ContentType string
}

// Config holds configuration for export storage
type Config struct {
	Type    string `json:"type"` // local, s3
	BaseDir string `json:"base_dir"`
	Bucket  string `json:"bucket"`
	Region  string `json:"region"`
	Prefix  string `json:"prefix"`
}

// Factory creates storage instances based on configuration
type Factory struct{}

// NewFactory creates a new storage factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create creates a new storage instance based on the configuration
func (f *Factory) Create(ctx context.Context, config Config) (Storage, error) {
	switch config.Type {
	case "local", "filesystem", "fs", "":
		return NewLocalFS(config)
	case "s3":
		return NewS3FS(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// StorageError represents storage-specific errors
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

var (
	errNotFound    = errors.New("file not found")
	errInvalidPath = errors.New("invalid path")
)

// IsNotFound checks if an error indicates a file was not found
func IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}

// IsInvalidPath checks if an error indicates a rejected path
func IsInvalidPath(err error) bool {
	return errors.Is(err, errInvalidPath)
}

// cleanPath normalizes a relative object path and rejects escapes from the root
func cleanPath(op, p string) (string, error) {
	p = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, `\`, "/")), "/")
	if p == "" || p == "." || strings.HasPrefix(p, "..") {
		return "", &StorageError{Op: op, Path: p, Err: errInvalidPath}
	}
	return p, nil
}
