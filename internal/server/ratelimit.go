package server

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// rateLimiter keeps one token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limiters: map[string]*rate.Limiter{},
		rate:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (rl *rateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[key]
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = l
	}
	return l
}

// sweep forgets clients whose bucket has refilled completely.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, l := range rl.limiters {
		if l.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
}

// sweepEvery runs sweep on a ticker until done is closed.
func (rl *rateLimiter) sweepEvery(d time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-done:
			return
		}
	}
}

// handler rejects a client with 429 once its bucket is empty.
func (rl *rateLimiter) handler(c *fiber.Ctx) error {
	if !rl.get(c.IP()).Allow() {
		c.Set("X-RateLimit-Remaining", "0")
		c.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
		return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later")
	}
	return c.Next()
}
