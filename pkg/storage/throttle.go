package storage

import (
	"context"
	"io"

	"github.com/sdejongh/filerecon/pkg/ratelimit"
)

// Throttled limits the read bandwidth of a backend
type Throttled struct {
	Backend
	limiter *ratelimit.Limiter
}

// Throttle wraps b so that every Read draws from limiter. Backends sharing
// one limiter share its budget. A nil limiter returns b unchanged.
func Throttle(b Backend, limiter *ratelimit.Limiter) Backend {
	if limiter == nil {
		return b
	}
	return &Throttled{Backend: b, limiter: limiter}
}

// Read opens path and throttles its content
func (t *Throttled) Read(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := t.Backend.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewReadCloser(ctx, rc, t.limiter), nil
}

// IsSingleFile reports whether the wrapped backend is a single file
func (t *Throttled) IsSingleFile() bool {
	return IsSingleFile(t.Backend)
}

// IsSingleFile reports whether b was opened on a single file rather than a directory
func IsSingleFile(b Backend) bool {
	s, ok := b.(interface{ IsSingleFile() bool })
	return ok && s.IsSingleFile()
}
