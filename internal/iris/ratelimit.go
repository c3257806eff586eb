package iris

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a sliding window rate limit on alert submissions.
// It bounds how hard a large backlog of incidents can hammer IRIS.
type RateLimiter struct {
	mu           sync.Mutex
	maxPerWindow int
	window       time.Duration
	timestamps   []time.Time
	waited       int64
	enabled      bool
}

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	MaxPerWindow int           // Maximum submissions per window (default: 30)
	Window       time.Duration // Time window (default: 1 minute)
	Enabled      bool          // Whether rate limiting is enabled (default: true)
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPerWindow: 30,
		Window:       time.Minute,
		Enabled:      true,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = 30
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return &RateLimiter{
		maxPerWindow: config.MaxPerWindow,
		window:       config.Window,
		timestamps:   make([]time.Time, 0, config.MaxPerWindow),
		enabled:      config.Enabled,
	}
}

// Allow checks if a submission is allowed under the rate limit right now.
func (r *RateLimiter) Allow() bool {
	if !r.enabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.cleanup(now.Add(-r.window))

	if len(r.timestamps) >= r.maxPerWindow {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Wait blocks until a submission slot is available or the context is done.
// Unlike notification-style limiting, submissions are never dropped; the
// caller is a sequential pipeline that prefers latency over loss.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.Allow() {
			return nil
		}
		r.mu.Lock()
		r.waited++
		var sleep time.Duration
		if len(r.timestamps) > 0 {
			sleep = time.Until(r.timestamps[0].Add(r.window))
		}
		r.mu.Unlock()
		if sleep <= 0 {
			sleep = 50 * time.Millisecond
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Waited returns how many times a submission had to wait for a slot.
func (r *RateLimiter) Waited() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waited
}

// cleanup removes timestamps older than the cutoff. Caller must hold the lock.
func (r *RateLimiter) cleanup(cutoff time.Time) {
	kept := r.timestamps[:0]
	for _, ts := range r.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	r.timestamps = kept
}
