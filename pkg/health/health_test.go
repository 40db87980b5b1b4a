package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestReadyEndpoint_NotReadyUntilSet(t *testing.T) {
	h := New()

	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "service is not ready")

	h.SetReady(true)
	rec = probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLiveEndpoint_HealthyByDefault(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	rec := probe(t, h.LiveEndpoint)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCheck_FailureThreshold(t *testing.T) {
	c := newCheck("flappy", time.Second, func(context.Context) error {
		return errors.New("down")
	})

	ctx := context.Background()
	c.poll(ctx)
	c.poll(ctx)
	assert.True(t, c.healthy.Load(), "below threshold, still healthy")

	c.poll(ctx)
	assert.False(t, c.healthy.Load(), "third consecutive failure flips the check")

	// A single success recovers it.
	c.fn = func(context.Context) error { return nil }
	c.poll(ctx)
	assert.True(t, c.healthy.Load())
}

func TestUnhealthyCheckReportedWithError(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	h.SetReady(true)

	ctx := context.Background()
	for _, c := range h.readiness {
		for range failureThreshold {
			c.poll(ctx)
		}
	}

	rec := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestStartPollsChecks(t *testing.T) {
	var polls atomic.Int32
	h := New()
	h.AddLivenessCheck("counter", time.Second, func(context.Context) error {
		polls.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool {
		return polls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
