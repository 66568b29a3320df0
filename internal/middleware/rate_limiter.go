package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per authenticated user.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int]*entry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per user with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[int]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		ttl:      10 * time.Minute,
	}
}

func (r *RateLimiter) get(userID int, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.limiters {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.limiters, id)
		}
	}
	e, ok := r.limiters[userID]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[userID] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Limit rejects requests over the per-user budget with 429.
func (r *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.get(c.GetInt(UserIDKey), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
