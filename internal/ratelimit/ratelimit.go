package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a token bucket: capacity burst, refilled at rate tokens per
// second. Each connection owns one, sized for interactive drawing traffic.
type Limiter struct {
	rate   float64
	burst  int
	tokens float64
	last   time.Time
	mu     sync.Mutex
}

func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// Allow reports whether one message may pass right now.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN reports whether n messages may pass right now, spending n tokens
// if so.
func (l *Limiter) AllowN(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens < float64(n) {
		return false
	}
	l.tokens -= float64(n)
	return true
}

func (l *Limiter) refill() {
	now := time.Now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	l.last = now
	if l.tokens > float64(l.burst) {
		l.tokens = float64(l.burst)
	}
}
