package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Limiter counts requests per key inside a sliding window
type Limiter interface {
	// Check records a request for key and reports whether it fits in the window
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)

	// Reset forgets all requests recorded for key
	Reset(ctx context.Context, key string) error
}

// Rule is a request budget for one window
type Rule struct {
	Limit  int
	Window time.Duration
}

// Valid reports whether the rule can limit anything
func (r Rule) Valid() bool {
	return r.Limit > 0 && r.Window > 0
}
