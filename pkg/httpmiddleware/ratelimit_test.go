package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLimiterBurstThenRefill(t *testing.T) {
	l := newLimiter(2, 2*time.Second) // one token per second
	now := time.Unix(0, 0)

	remaining, _, ok := l.take("till-1", now)
	require.True(t, ok)
	assert.Equal(t, 1, remaining)

	remaining, _, ok = l.take("till-1", now)
	require.True(t, ok)
	assert.Equal(t, 0, remaining)

	_, retryAfter, ok := l.take("till-1", now)
	require.False(t, ok)
	assert.Equal(t, time.Second, retryAfter)

	// One refill interval later exactly one token is back.
	now = now.Add(time.Second)
	_, _, ok = l.take("till-1", now)
	assert.True(t, ok)
	_, _, ok = l.take("till-1", now)
	assert.False(t, ok)
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := newLimiter(1, time.Minute)
	now := time.Unix(0, 0)

	_, _, ok := l.take("till-1", now)
	require.True(t, ok)
	_, _, ok = l.take("till-2", now)
	assert.True(t, ok)
	_, _, ok = l.take("till-1", now)
	assert.False(t, ok)
}

func TestLimiterSweepDropsIdleBuckets(t *testing.T) {
	l := newLimiter(1, time.Minute)
	now := time.Unix(0, 0)
	l.take("till-1", now)

	l.sweep(now.Add(30 * time.Second))
	assert.Len(t, l.buckets, 1)

	l.sweep(now.Add(time.Minute))
	assert.Empty(t, l.buckets)
}

func TestRateLimitRejectsExhaustedClient(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(429), body["code"])
	assert.Equal(t, "Too many requests", body["message"])
}

func TestRateLimitSeparatesTerminalsBehindOneAddress(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

	do := func(terminal string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.10:4444"
		req.Header.Set("X-Terminal-ID", terminal)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("till-1"))
	assert.Equal(t, http.StatusOK, do("till-2"))
	assert.Equal(t, http.StatusTooManyRequests, do("till-1"))
}

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:4444"
	assert.Equal(t, "192.168.1.1", clientAddr(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientAddr(req))

	// X-Forwarded-For wins, first entry only.
	req.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	assert.Equal(t, "203.0.113.50", clientAddr(req))
}
