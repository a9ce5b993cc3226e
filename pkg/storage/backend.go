package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	Permissions  uint32
	RelativePath string
}

// ListOptions controls a listing
type ListOptions struct {
	// Recursive descends into subdirectories
	Recursive bool
}

// SkippedPath is an entry the listing could not read
type SkippedPath struct {
	Path string
	Err  error
}

// Listing is the result of walking a root
type Listing struct {
	Files   []FileInfo
	Skipped []SkippedPath
}

// Backend defines read-only access to a compared root.
// Implementations include the local filesystem and S3-compatible object stores.
type Backend interface {
	// List returns the regular files under the root.
	// Unreadable entries are reported in Listing.Skipped; only a root failure returns an error.
	List(ctx context.Context, opts ListOptions) (*Listing, error)

	// Read opens a file for reading by its relative path
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns file metadata
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Root returns a printable description of the root
	Root() string

	// Close releases any resources held by the backend
	Close() error
}
