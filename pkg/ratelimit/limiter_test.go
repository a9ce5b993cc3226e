package ratelimit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1024", 1024, false},
		{"10M", 10 * 1000 * 1000, false},
		{"10MB/s", 10 * 1000 * 1000, false},
		{"512KiB", 512 * 1024, false},
		{"1 GiB", 1 << 30, false},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRate(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLimiter(t *testing.T) {
	t.Run("Unlimited", func(t *testing.T) {
		if NewLimiter(0) != nil {
			t.Error("NewLimiter(0) should return nil (no limiting)")
		}
		if NewLimiter(-100) != nil {
			t.Error("NewLimiter(-100) should return nil (no limiting)")
		}
	})

	t.Run("SmallRateUsesMinimumBurst", func(t *testing.T) {
		l := NewLimiter(1000)
		if l.burst != minBurst {
			t.Errorf("burst = %d, want %d", l.burst, minBurst)
		}
		if l.tokens != l.burst {
			t.Errorf("initial tokens = %d, want full bucket %d", l.tokens, l.burst)
		}
	})

	t.Run("LargeRateBurstsOneSecond", func(t *testing.T) {
		l := NewLimiter(100 * 1024 * 1024)
		if l.burst != 100*1024*1024 {
			t.Errorf("burst = %d, want %d", l.burst, 100*1024*1024)
		}
		if l.bytesPerSecond != 100*1024*1024 {
			t.Errorf("bytesPerSecond = %d, want %d", l.bytesPerSecond, 100*1024*1024)
		}
	})
}

func TestNewReadCloser(t *testing.T) {
	t.Run("NilLimiterPassesThrough", func(t *testing.T) {
		base := io.NopCloser(strings.NewReader("content"))
		if got := NewReadCloser(context.Background(), base, nil); got != base {
			t.Error("NewReadCloser() should return the original reader when limiter is nil")
		}
	})

	t.Run("ReadsEverything", func(t *testing.T) {
		content := []byte("0123456789abcdef")
		rc := NewReadCloser(context.Background(), io.NopCloser(bytes.NewReader(content)), NewLimiter(1024*1024))

		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if !bytes.Equal(got, content) {
			t.Errorf("ReadAll() = %q, want %q", got, content)
		}
		if err := rc.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rc := NewReadCloser(ctx, io.NopCloser(bytes.NewReader(make([]byte, 16))), NewLimiter(1024*1024))
		if _, err := rc.Read(make([]byte, 8)); !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	})
}

func TestThrottling(t *testing.T) {
	t.Run("WaitsForRefill", func(t *testing.T) {
		// The bucket starts full with one burst; the remaining half burst
		// needs about half a second to refill
		limiter := NewLimiter(minBurst)
		content := make([]byte, minBurst+minBurst/2)
		rc := NewReadCloser(context.Background(), io.NopCloser(bytes.NewReader(content)), limiter)

		start := time.Now()
		if _, err := io.ReadAll(rc); err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
			t.Errorf("elapsed = %v, want at least 400ms", elapsed)
		}
	})

	t.Run("WaitObservesDeadline", func(t *testing.T) {
		limiter := NewLimiter(1000)
		limiter.consume(limiter.burst)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		rc := NewReadCloser(ctx, io.NopCloser(bytes.NewReader(make([]byte, 4096))), limiter)
		start := time.Now()
		_, err := rc.Read(make([]byte, 4096))
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Read() error = %v, want context.DeadlineExceeded", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Read() blocked for %v after the deadline", elapsed)
		}
	})

	t.Run("SharedAcrossReaders", func(t *testing.T) {
		limiter := NewLimiter(minBurst)
		a := NewReadCloser(context.Background(), io.NopCloser(bytes.NewReader(make([]byte, minBurst))), limiter)
		b := NewReadCloser(context.Background(), io.NopCloser(bytes.NewReader(make([]byte, minBurst/2))), limiter)

		start := time.Now()
		if _, err := io.ReadAll(a); err != nil {
			t.Fatalf("ReadAll(a) error = %v", err)
		}
		if _, err := io.ReadAll(b); err != nil {
			t.Fatalf("ReadAll(b) error = %v", err)
		}
		if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
			t.Errorf("elapsed = %v, want at least 400ms for a shared budget", elapsed)
		}
	})
}
