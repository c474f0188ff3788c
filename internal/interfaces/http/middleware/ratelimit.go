package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window request counter per client key
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	remaining int
	start     time.Time
}

// NewRateLimiter allows limit requests per key in each period. Idle keys
// are swept every two periods until Stop is called.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweeper goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.period * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.clients {
				if now.Sub(w.start) > rl.period*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow consumes one request for key and reports whether it is allowed,
// together with the requests left in the current window.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.clients[key] = &window{remaining: rl.limit - 1, start: now}
		return true, rl.limit - 1
	}
	if w.remaining > 0 {
		w.remaining--
		return true, w.remaining
	}
	return false, 0
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining := limiter.Allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(limiter.period.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				GetRequestID(c),
			))
			return
		}
		c.Next()
	}
}
