package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local is a filesystem-based storage backend.
// The root may be a directory or a single regular file.
type Local struct {
	rootPath string
	single   string // base name when the root is a single file
}

// NewLocal creates a new local filesystem backend
func NewLocal(rootPath string) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("path is not a regular file or directory: %s", absPath)
		}
		return &Local{rootPath: filepath.Dir(absPath), single: filepath.Base(absPath)}, nil
	}

	return &Local{rootPath: absPath}, nil
}

// IsSingleFile reports whether the backend was opened on a single file
func (l *Local) IsSingleFile() bool {
	return l.single != ""
}

// Root returns the absolute root path
func (l *Local) Root() string {
	if l.single != "" {
		return filepath.Join(l.rootPath, l.single)
	}
	return l.rootPath
}

// List returns all regular files under the root
func (l *Local) List(ctx context.Context, opts ListOptions) (*Listing, error) {
	listing := &Listing{}

	if l.single != "" {
		info, err := l.Stat(ctx, l.single)
		if err != nil {
			return nil, err
		}
		listing.Files = append(listing.Files, *info)
		return listing, nil
	}

	err := filepath.WalkDir(l.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == l.rootPath {
				return err
			}
			listing.Skipped = append(listing.Skipped, SkippedPath{Path: p, Err: err})
			return nil
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if p != l.rootPath && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := l.fileInfo(p, d)
		if err != nil {
			listing.Skipped = append(listing.Skipped, SkippedPath{Path: p, Err: err})
			return nil
		}
		if info != nil {
			listing.Files = append(listing.Files, *info)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return listing, nil
}

// fileInfo resolves a walked entry, following symlinks to regular files.
// It returns nil for anything that is not a regular file.
func (l *Local) fileInfo(p string, d fs.DirEntry) (*FileInfo, error) {
	var info fs.FileInfo
	var err error
	if d.Type()&fs.ModeSymlink != 0 {
		info, err = os.Stat(p)
	} else {
		info, err = d.Info()
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	relPath, err := filepath.Rel(l.rootPath, p)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:         p,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: filepath.ToSlash(relPath),
	}, nil
}

// Read opens a file for reading
func (l *Local) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(l.rootPath, filepath.FromSlash(path))

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	fullPath := filepath.Join(l.rootPath, filepath.FromSlash(path))

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	relPath, err := filepath.Rel(l.rootPath, fullPath)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Path:         fullPath,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: filepath.ToSlash(relPath),
	}, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

// IsNotExist reports whether err means the path does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
