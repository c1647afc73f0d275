package agent

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	if !rl.Allow("u1") || !rl.Allow("u1") {
		t.Fatal("expected first two requests to be allowed")
	}
	if rl.Allow("u1") {
		t.Fatal("expected third request to be rejected")
	}
	if !rl.Allow("u2") {
		t.Fatal("expected other keys to be unaffected")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 30*time.Millisecond)
	defer rl.Stop()

	if !rl.Allow("u1") {
		t.Fatal("expected first request to be allowed")
	}
	if rl.Allow("u1") {
		t.Fatal("expected second request inside window to be rejected")
	}
	time.Sleep(60 * time.Millisecond)
	if !rl.Allow("u1") {
		t.Fatal("expected request after window to be allowed")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}
