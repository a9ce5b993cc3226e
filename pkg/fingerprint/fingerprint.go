// Package fingerprint computes content fingerprints for indexed files.
package fingerprint

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sdejongh/filerecon/pkg/models"
)

// sniffSize is how many leading bytes are inspected for NUL to classify binary content
const sniffSize = 8192

// Options configures the fingerprint engine
type Options struct {
	// BufferSize is the read buffer size used when streaming files
	BufferSize int
}

// Failure records a file whose fingerprint could not be computed
type Failure struct {
	Entry models.FileEntry
	Err   error
}

// Engine computes fingerprints and caches them for the lifetime of a run.
// Concurrent requests for the same path share a single computation.
type Engine struct {
	bufferPool *sync.Pool

	mu    sync.RWMutex
	cache map[string]models.Fingerprint
	sf    singleflight.Group

	bytesHashed atomic.Int64
	computed    atomic.Int64
}

// NewEngine creates a fingerprint engine
func NewEngine(opts Options) *Engine {
	bufferSize := opts.BufferSize
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Engine{
		cache: make(map[string]models.Fingerprint),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// Fingerprint returns the cached fingerprint of entry, computing it on first use
func (e *Engine) Fingerprint(ctx context.Context, entry models.FileEntry) (models.Fingerprint, error) {
	if fp, ok := e.Lookup(entry.Path); ok {
		return fp, nil
	}

	result, err, _ := e.sf.Do(entry.Path, func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if fp, ok := e.Lookup(entry.Path); ok {
			return fp, nil
		}

		fp, err := e.compute(ctx, entry)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		e.cache[entry.Path] = fp
		e.mu.Unlock()

		return fp, nil
	})
	if err != nil {
		return models.Fingerprint{}, err
	}

	return result.(models.Fingerprint), nil
}

// Lookup returns a cached fingerprint without computing it
func (e *Engine) Lookup(path string) (models.Fingerprint, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fp, ok := e.cache[path]
	return fp, ok
}

// Snapshot returns a copy of the cache keyed by entry path
func (e *Engine) Snapshot() map[string]models.Fingerprint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]models.Fingerprint, len(e.cache))
	for k, v := range e.cache {
		out[k] = v
	}
	return out
}

// Prefetch fingerprints all entries with at most workers concurrent reads.
// Per-file failures are returned rather than aborting the batch; only
// context cancellation stops it early.
func (e *Engine) Prefetch(ctx context.Context, entries []models.FileEntry, workers int) ([]Failure, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		failures []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := e.Fingerprint(gctx, entry); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				failures = append(failures, Failure{Entry: entry, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return failures, err
	}
	if err := ctx.Err(); err != nil {
		return failures, err
	}

	return failures, nil
}

// BytesHashed returns the number of bytes streamed through the hasher
func (e *Engine) BytesHashed() int64 {
	return e.bytesHashed.Load()
}

// Computed returns how many fingerprints were computed rather than served from cache
func (e *Engine) Computed() int64 {
	return e.computed.Load()
}

// compute streams the file once, feeding the strong hash and, while the
// content still looks like text, the locality hash.
func (e *Engine) compute(ctx context.Context, entry models.FileEntry) (models.Fingerprint, error) {
	reader, err := entry.Open(ctx)
	if err != nil {
		return models.Fingerprint{}, err
	}
	defer reader.Close()

	hasher := sha256.New()
	simhash := newSimhasher()
	binary := models.IsBinaryExtension(entry.Extension)

	// Get buffer from pool
	bufPtr := e.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer e.bufferPool.Put(bufPtr)

	var totalRead int64
	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return models.Fingerprint{}, ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			chunk := buffer[:n]
			hasher.Write(chunk)

			if !binary && totalRead < sniffSize {
				sniff := chunk
				if remaining := sniffSize - totalRead; int64(len(sniff)) > remaining {
					sniff = sniff[:remaining]
				}
				binary = bytes.IndexByte(sniff, 0) >= 0
			}
			if !binary {
				simhash.Write(chunk)
			}
			totalRead += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Fingerprint{}, &models.IoError{Path: entry.Path, Op: "read", Err: fmt.Errorf("failed to read file: %w", err)}
		}
	}

	e.bytesHashed.Add(totalRead)
	e.computed.Add(1)

	fp := models.Fingerprint{Binary: binary}
	copy(fp.StrongHash[:], hasher.Sum(nil))
	if !binary {
		fp.LocalityHash = simhash.Sum64()
	}
	return fp, nil
}
