package middleware

import (
	"net/http"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter applies per-IP rate limiting. Limiters live in a TTL'd
// cache so idle clients expire without a bespoke cleanup goroutine.
type RateLimiter struct {
	mu      sync.Mutex
	clients *gocache.Cache
	limit   rate.Limit
	burst   int
}

// NewRateLimiter creates a per-IP limiter.
// limit: requests per second
// burst: maximum burst size
// clientTTL: how long an idle client's limiter is retained
func NewRateLimiter(limit rate.Limit, burst int, clientTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: gocache.New(clientTTL, 2*clientTTL),
		limit:   limit,
		burst:   burst,
	}
}

// Middleware returns the HTTP middleware handler
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if !rl.getVisitor(ip).Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	// The cache is safe for concurrent use, but get-then-set is not
	// atomic: two first requests from one IP could otherwise each
	// create a limiter and split the accounting between them.
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if v, found := rl.clients.Get(ip); found {
		// Refresh the TTL so active clients keep their limiter state.
		limiter := v.(*rate.Limiter)
		rl.clients.SetDefault(ip, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients.SetDefault(ip, limiter)
	return limiter
}
