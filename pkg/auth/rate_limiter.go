package auth

import (
	"sync"
	"time"
)

/*
RateLimiter is a token bucket. One instance guards the whole API surface;
rewrite calls are provider-bound and expensive, so the bucket is small.
*/
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	last     time.Time
}

/*
NewRateLimiter allows rate operations per interval, with bursts up to rate.
*/
func NewRateLimiter(rate int64, interval time.Duration) *RateLimiter {
	if rate <= 0 || interval <= 0 {
		panic("rate and interval must be positive")
	}

	return &RateLimiter{
		rate:     float64(rate) / interval.Seconds(),
		capacity: float64(rate),
		tokens:   float64(rate),
		last:     time.Now(),
	}
}

/*
Allow consumes one token if available.
*/
func (limiter *RateLimiter) Allow() bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := time.Now()
	limiter.tokens += now.Sub(limiter.last).Seconds() * limiter.rate
	limiter.last = now

	if limiter.tokens > limiter.capacity {
		limiter.tokens = limiter.capacity
	}

	if limiter.tokens < 1 {
		return false
	}

	limiter.tokens--

	return true
}

/*
WaitTime reports how long until the next token becomes available.
*/
func (limiter *RateLimiter) WaitTime() time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	if limiter.tokens >= 1 {
		return 0
	}

	return time.Duration((1 - limiter.tokens) / limiter.rate * float64(time.Second))
}

/*
Reset refills the bucket.
*/
func (limiter *RateLimiter) Reset() {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.tokens = limiter.capacity
	limiter.last = time.Now()
}
