package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func call(t *testing.T, fn http.HandlerFunc) (int, body) {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var b body
	require.NoError(t, json.NewDecoder(w.Body).Decode(&b))
	return w.Code, b
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("ok", time.Second, passing())
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))

	code, b := call(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "checks start healthy")
	assert.Equal(t, "ok", b.Status)

	ctx := context.Background()
	for range failureThreshold - 1 {
		h.liveness[1].run(ctx)
	}
	code, _ = call(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code, "below threshold")

	h.liveness[1].run(ctx)
	code, b = call(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", b.Status)
	assert.Equal(t, map[string]string{"db": "connection refused"}, b.Checks)
}

func TestCheckRecovers(t *testing.T) {
	var err error
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(context.Context) error { return err })

	ctx := context.Background()
	err = errors.New("down")
	for range failureThreshold {
		h.liveness[0].run(ctx)
	}
	assert.False(t, h.liveness[0].healthy.Load())

	err = nil
	h.liveness[0].run(ctx)
	assert.True(t, h.liveness[0].healthy.Load())
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing())

	code, b := call(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, b.Checks, "_readiness")
	assert.False(t, h.IsReady())

	h.SetReady(true)
	code, _ = call(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())
}

func TestStartRunsChecks(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, PingCheck("postgres", func(context.Context) error {
		return errors.New("refused")
	}))
	h.SetReady(true)

	h.Start(context.Background(), 5*time.Millisecond)
	defer h.Stop()

	require.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)
	_, b := call(t, h.ReadyEndpoint)
	assert.Equal(t, "ping postgres: refused", b.Checks["postgres"])

	h.Stop()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
