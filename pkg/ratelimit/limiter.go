// Package ratelimit caps the read bandwidth shared by every open file of a run.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// minBurst keeps chunked reads smooth at low rates
const minBurst = 64 * 1024

// Limiter is a token bucket measured in bytes, shared across readers
type Limiter struct {
	bytesPerSecond int64

	mu         sync.Mutex
	tokens     int64     // available bytes
	lastRefill time.Time // last time tokens were added
	burst      int64     // bucket capacity
}

// ParseRate parses a bandwidth such as "10MB", "512k" or "1GiB" into bytes
// per second. An empty string or "0" means unlimited.
func ParseRate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(strings.TrimSuffix(s, "/s"))
	if err != nil {
		return 0, fmt.Errorf("invalid bandwidth %q: %w", s, err)
	}
	return int64(n), nil
}

// NewLimiter creates a limiter for bytesPerSecond. It returns nil, meaning
// no limit, when the rate is not positive.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	// One second of data, or minBurst for slow rates
	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		tokens:         burst,
		lastRefill:     time.Now(),
		burst:          burst,
	}
}

// wait blocks until needed bytes are available or ctx is done
func (l *Limiter) wait(ctx context.Context, needed int64) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= needed {
			l.mu.Unlock()
			return nil
		}
		deficit := needed - l.tokens
		l.mu.Unlock()

		delay := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if delay < time.Millisecond {
			delay = time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens for the elapsed time; l.mu must be held
func (l *Limiter) refill() {
	now := time.Now()
	add := int64(now.Sub(l.lastRefill).Seconds() * float64(l.bytesPerSecond))
	if add > 0 {
		l.tokens += add
		if l.tokens > l.burst {
			l.tokens = l.burst
		}
		l.lastRefill = now
	}
}

func (l *Limiter) consume(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens -= n
	if l.tokens < 0 {
		l.tokens = 0
	}
}

type readCloser struct {
	rc      io.ReadCloser
	limiter *Limiter
	ctx     context.Context
}

// NewReadCloser throttles rc through limiter. A nil limiter returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &readCloser{rc: rc, limiter: limiter, ctx: ctx}
}

func (r *readCloser) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	// Never ask for more than the bucket can hold
	want := len(p)
	if int64(want) > r.limiter.burst {
		want = int(r.limiter.burst)
	}
	if err := r.limiter.wait(r.ctx, int64(want)); err != nil {
		return 0, err
	}

	n, err := r.rc.Read(p[:want])
	if n > 0 {
		r.limiter.consume(int64(n))
	}
	return n, err
}

func (r *readCloser) Close() error {
	return r.rc.Close()
}
