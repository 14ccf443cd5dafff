package httpx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether another request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// WithRateLimit rejects requests over the limiter's budget with 429. When the limiter
// itself fails, failOpen decides between serving the request and answering 503.
func WithRateLimit(l Limiter, logger *slog.Logger, failOpen bool) Middleware {
	if l == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := l.Allow(r.Context(), clientKey(r))
			switch {
			case err != nil && failOpen:
				if logger != nil {
					logger.Warn("rate limiter unavailable, allowing request", "err", err)
				}
				next.ServeHTTP(w, r)
			case err != nil:
				if logger != nil {
					logger.Error("rate limiter unavailable", "err", err)
				}
				WriteError(w, http.StatusServiceUnavailable, "RateLimiterUnavailable", "rate limiter unavailable")
			case !allowed:
				w.Header().Set("Retry-After", "60")
				WriteError(w, http.StatusTooManyRequests, "RateLimited", "rate limit exceeded")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// MemoryLimiter keeps a token bucket per client for single-instance deployments. Each
// client may burst up to limit requests and then refills at limit per window.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	nextSweep time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.clients[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// sweep forgets clients idle for a full window, whose buckets are full again anyway.
// Caller holds mu.
func (rl *MemoryLimiter) sweep(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for k, b := range rl.clients {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.clients, k)
		}
	}
	rl.nextSweep = now.Add(rl.window)
}

func (rl *MemoryLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// clientKey identifies the caller by the left-most X-Forwarded-For entry when present,
// falling back to the peer address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
