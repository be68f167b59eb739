package httpapi

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := newRateLimiter(100, 3, lg)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatalf("request beyond burst was allowed")
	}
	// Other clients have their own bucket.
	if !rl.allow("10.0.0.2") {
		t.Fatalf("fresh client was denied")
	}

	// Backdate the last check; at 100 tokens/s the bucket refills.
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastCheck = time.Now().Add(-time.Second)
	rl.mu.Unlock()
	if !rl.allow("10.0.0.1") {
		t.Fatalf("request after refill was denied")
	}
}

func TestRateLimiterEvictsStaleVisitorsInline(t *testing.T) {
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := newRateLimiter(1, 1, lg)

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")

	// Make one visitor stale and force the next allow to sweep.
	rl.mu.Lock()
	rl.visitors["10.0.0.1"].lastCheck = time.Now().Add(-3 * sweepInterval)
	rl.nextSweep = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	rl.allow("10.0.0.3")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Fatalf("stale visitor survived the sweep")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Fatalf("recent visitor was evicted")
	}
	if _, ok := rl.visitors["10.0.0.3"]; !ok {
		t.Fatalf("sweeping request was not recorded")
	}
}
