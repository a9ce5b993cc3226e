// Package index enumerates the files under a compared root.
package index

import (
	"context"
	"sort"

	"github.com/sdejongh/filerecon/pkg/models"
	"github.com/sdejongh/filerecon/pkg/storage"
)

// Options controls how a root is indexed
type Options struct {
	Recursive bool
	Exclude   []string
}

// Index is the ordered set of files found under one root
type Index struct {
	Root     string
	Entries  []models.FileEntry
	Warnings []models.Warning
}

// Build walks the backend root and returns its entries sorted by relative path.
// Entries that cannot be read are skipped and recorded as warnings.
func Build(ctx context.Context, backend storage.Backend, opts Options) (*Index, error) {
	listing, err := backend.List(ctx, storage.ListOptions{Recursive: opts.Recursive})
	if err != nil {
		return nil, &models.IoError{Path: backend.Root(), Op: "index", Err: err}
	}

	ix := &Index{
		Root:    backend.Root(),
		Entries: make([]models.FileEntry, 0, len(listing.Files)),
	}

	for _, info := range listing.Files {
		if info.IsDir || shouldExclude(info.RelativePath, opts.Exclude) {
			continue
		}
		ix.Entries = append(ix.Entries, models.NewFileEntry(backend, info))
	}

	for _, skipped := range listing.Skipped {
		ix.Warnings = append(ix.Warnings, models.Warning{
			Kind:    models.WarnIO,
			Path:    skipped.Path,
			Message: "skipped unreadable entry: " + skipped.Err.Error(),
		})
	}

	sort.Slice(ix.Entries, func(i, j int) bool {
		return ix.Entries[i].RelativePath < ix.Entries[j].RelativePath
	})

	return ix, nil
}

// Len returns the number of indexed entries
func (ix *Index) Len() int {
	return len(ix.Entries)
}
