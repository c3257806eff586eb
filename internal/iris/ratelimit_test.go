package iris

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 3, Window: time.Minute, Enabled: true})

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Errorf("submission %d should be allowed", i+1)
		}
	}
	if limiter.Allow() {
		t.Error("fourth submission should be blocked")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: false})

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatal("disabled limiter must always allow")
		}
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: 20 * time.Millisecond, Enabled: true})

	if !limiter.Allow() {
		t.Fatal("first submission should be allowed")
	}
	if limiter.Allow() {
		t.Fatal("second submission should be blocked inside the window")
	}

	time.Sleep(30 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("submission should be allowed after the window passes")
	}
}

func TestRateLimiterWaitBlocksThenProceeds(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: 30 * time.Millisecond, Enabled: true})

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("second Wait returned after %v, expected it to block for the window", elapsed)
	}
	if limiter.Waited() == 0 {
		t.Error("Waited() should count the blocked submission")
	}
}

func TestRateLimiterWaitRespectsContext(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Hour, Enabled: true})
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Wait error = %v, want context.DeadlineExceeded", err)
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Enabled: true})
	if limiter.maxPerWindow != 30 || limiter.window != time.Minute {
		t.Errorf("defaults = %d/%v, want 30/min", limiter.maxPerWindow, limiter.window)
	}
}
