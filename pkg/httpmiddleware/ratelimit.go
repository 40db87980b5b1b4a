package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
)

// RateLimitConfig configures the per-client token bucket limiter.
type RateLimitConfig struct {
	// Max is the bucket capacity: the burst a single client may issue before
	// refill pacing takes over. The bucket refills at Max tokens per Window.
	Max int
	// Window is the interval over which Max tokens are replenished.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Nil means TerminalKey.
	KeyFunc func(*http.Request) string
}

// bucket is one client's token state.
type bucket struct {
	tokens float64
	seen   time.Time
}

type limiter struct {
	capacity float64
	rate     float64 // tokens per second
	window   time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

func newLimiter(max int, window time.Duration) *limiter {
	return &limiter{
		capacity: float64(max),
		rate:     float64(max) / window.Seconds(),
		window:   window,
		buckets:  make(map[string]*bucket),
	}
}

// take spends one token for key. When the bucket is empty it reports how long
// the client must wait before the next token is available.
func (l *limiter) take(key string, now time.Time) (remaining int, retryAfter time.Duration, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: l.capacity, seen: now}
		l.buckets[key] = b
	}

	b.tokens = math.Min(l.capacity, b.tokens+now.Sub(b.seen).Seconds()*l.rate)
	b.seen = now

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
		return 0, wait, false
	}
	b.tokens--
	return int(b.tokens), 0, true
}

// sweep drops buckets idle long enough to have refilled completely.
func (l *limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.seen) >= l.window {
			delete(l.buckets, key)
		}
	}
}

// RateLimit returns a middleware enforcing a per-client token bucket. Every
// response carries X-RateLimit-Limit and X-RateLimit-Remaining; an exhausted
// bucket yields 429 with a Retry-After header and the shared JSON error body.
//
// This variant never evicts idle buckets. Use RateLimitWithCleanup on
// long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return rateLimit(newLimiter(cfg.Max, cfg.Window), cfg.KeyFunc)
}

// RateLimitWithCleanup is RateLimit plus a background sweeper that drops idle
// client buckets once per window. The sweeper stops when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg.Max, cfg.Window)
	go func() {
		ticker := time.NewTicker(l.window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.sweep(now)
			}
		}
	}()
	return rateLimit(l, cfg.KeyFunc)
}

func rateLimit(l *limiter, keyFunc func(*http.Request) string) Middleware {
	if keyFunc == nil {
		keyFunc = TerminalKey
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, retryAfter, ok := l.take(keyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(int(l.capacity)))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !ok {
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				var e jx.Encoder
				e.Obj(func(e *jx.Encoder) {
					e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusTooManyRequests) })
					e.Field("message", func(e *jx.Encoder) { e.Str("Too many requests") })
				})
				_, _ = w.Write(e.Bytes())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TerminalKey keys the limiter on the X-Terminal-ID header that registers
// send with every request, so tills sharing a store NAT get independent
// budgets. Requests without the header fall back to the client address.
func TerminalKey(r *http.Request) string {
	if id := r.Header.Get("X-Terminal-ID"); id != "" {
		return "terminal:" + id
	}
	return clientAddr(r)
}

// clientAddr resolves the originating client address, preferring proxy
// headers over the peer address.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
