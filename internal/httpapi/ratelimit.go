package httpapi

import (
	"math"
	"sync"
	"time"
)

type rateBucket struct {
	tokens       float64
	capacity     float64
	refillPerSec float64
	lastRefill   time.Time
}

// RateLimiter is a token bucket per caller key (API key or remote address).
type RateLimiter struct {
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*rateBucket
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		now:     func() time.Time { return time.Now().UTC() },
		buckets: make(map[string]*rateBucket),
	}
}

// Allow reports whether the caller may proceed and, when denied, how many
// seconds to wait before retrying.
func (r *RateLimiter) Allow(key string, rpm int) (bool, int) {
	if rpm <= 0 || key == "" {
		return false, 60
	}

	now := r.now()
	capacity := float64(rpm)
	refillPerSec := capacity / 60.0

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[key]
	if !ok {
		r.buckets[key] = &rateBucket{
			tokens:       capacity - 1,
			capacity:     capacity,
			refillPerSec: refillPerSec,
			lastRefill:   now,
		}
		return true, 0
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	if elapsed > 0 {
		bucket.tokens = math.Min(bucket.capacity, bucket.tokens+(elapsed*bucket.refillPerSec))
		bucket.lastRefill = now
	}
	if bucket.capacity != capacity || bucket.refillPerSec != refillPerSec {
		bucket.capacity = capacity
		bucket.refillPerSec = refillPerSec
		if bucket.tokens > bucket.capacity {
			bucket.tokens = bucket.capacity
		}
	}

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true, 0
	}

	wait := int(math.Ceil((1 - bucket.tokens) / bucket.refillPerSec))
	if wait < 1 {
		wait = 1
	}
	return false, wait
}
