package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCheck struct {
	name string
	err  error
}

func (s *stubCheck) Name() string                    { return s.name }
func (s *stubCheck) Check(ctx context.Context) error { return s.err }

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) ServiceHealthResponse {
	t.Helper()
	var status ServiceHealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	return status
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())

	for path, fn := range map[string]http.HandlerFunc{
		"/health":  handler.HandleHealth,
		"/healthz": handler.HandleHealthz,
	} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			fn(w, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, w.Code)
			status := decodeHealth(t, w)
			assert.Equal(t, "healthy", status.Status)
			assert.Equal(t, "Travel Agent API is running", status.Message)
			assert.False(t, status.Timestamp.IsZero())
		})
	}
}

func TestHealthHandler_HandleReady(t *testing.T) {
	t.Run("no checks registered", func(t *testing.T) {
		handler := NewHealthHandler(zap.NewNop())

		w := httptest.NewRecorder()
		handler.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "healthy", decodeHealth(t, w).Status)
	})

	t.Run("all checks pass", func(t *testing.T) {
		handler := NewHealthHandler(zap.NewNop())
		handler.RegisterCheck(&stubCheck{name: "provider"})
		handler.RegisterCheck(&stubCheck{name: "redis"})

		w := httptest.NewRecorder()
		handler.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		status := decodeHealth(t, w)
		assert.Equal(t, "healthy", status.Status)
		require.Len(t, status.Checks, 2)
		assert.Equal(t, "pass", status.Checks["provider"].Status)
		assert.Equal(t, "pass", status.Checks["redis"].Status)
		assert.NotEmpty(t, status.Checks["provider"].Latency)
	})

	t.Run("failing check flips readiness", func(t *testing.T) {
		handler := NewHealthHandler(zap.NewNop())
		handler.RegisterCheck(&stubCheck{name: "provider"})
		handler.RegisterCheck(&stubCheck{name: "history", err: errors.New("connection refused")})

		w := httptest.NewRecorder()
		handler.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		status := decodeHealth(t, w)
		assert.Equal(t, "unhealthy", status.Status)
		require.Len(t, status.Checks, 2)
		assert.Equal(t, "pass", status.Checks["provider"].Status)
		assert.Equal(t, "fail", status.Checks["history"].Status)
		assert.Equal(t, "connection refused", status.Checks["history"].Message)
	})
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleVersion("1.0.0", "2026-01-01T00:00:00Z", "abc123")(
		w, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0.0", data["version"])
	assert.Equal(t, "2026-01-01T00:00:00Z", data["build_time"])
	assert.Equal(t, "abc123", data["git_commit"])
}

func TestPingCheck(t *testing.T) {
	sentinel := errors.New("redis down")
	check := NewPingCheck("redis", func(ctx context.Context) error { return sentinel })

	assert.Equal(t, "redis", check.Name())
	assert.ErrorIs(t, check.Check(context.Background()), sentinel)
}

// RegisterCheck 与 HandleReady 可以并发使用
func TestHealthHandler_ConcurrentReady(t *testing.T) {
	handler := NewHealthHandler(zap.NewNop())
	for i := 0; i < 10; i++ {
		handler.RegisterCheck(&stubCheck{name: string(rune('a' + i))})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}()
	}
	wg.Wait()
}
