package semrush

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding the Semrush request rate. The API
// bills per line of output, so hammering it on retries gets expensive fast.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a bucket holding maxTokens that regains one token
// every refillRate.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// GetToken takes a token from the bucket, refilling first based on elapsed
// time. Returns false when the bucket is empty.
func (r *RateLimiter) GetToken() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	tokensToAdd := int(now.Sub(r.lastRefill) / r.refillRate)
	if tokensToAdd > 0 {
		r.tokens = min(r.maxTokens, r.tokens+tokensToAdd)
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for !r.GetToken() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.refillRate / 4):
		}
	}
	return nil
}
