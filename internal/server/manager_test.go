package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, handler http.Handler) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = ":0"
	return NewManager(handler, cfg, zap.NewNop())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 120*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestNewManager(t *testing.T) {
	m := NewManager(http.NewServeMux(), DefaultConfig(), zap.NewNop())
	require.NotNil(t, m)
	assert.True(t, m.IsRunning())
	assert.Equal(t, ":8080", m.Addr(), "未启动时返回配置地址")

	assert.NotPanics(t, func() {
		NewManager(http.NewServeMux(), DefaultConfig(), nil)
	})
}

func TestManager_Lifecycle(t *testing.T) {
	m := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))

	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	assert.True(t, m.IsRunning())

	resp, err := http.Get("http://" + m.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())

	// 重复关闭是 no-op
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StartGuards(t *testing.T) {
	t.Run("double start", func(t *testing.T) {
		m := newTestManager(t, http.NewServeMux())
		require.NoError(t, m.Start())
		t.Cleanup(func() { m.Shutdown(context.Background()) })

		err := m.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already started")
	})

	t.Run("start after shutdown", func(t *testing.T) {
		m := newTestManager(t, http.NewServeMux())
		require.NoError(t, m.Start())
		require.NoError(t, m.Shutdown(context.Background()))

		err := m.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "closed")
	})
}

func TestManager_Addr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = ":9999"
	m := NewManager(http.NewServeMux(), cfg, zap.NewNop())
	assert.Equal(t, ":9999", m.Addr())

	m2 := newTestManager(t, http.NewServeMux())
	require.NoError(t, m2.Start())
	t.Cleanup(func() { m2.Shutdown(context.Background()) })

	// 启动后返回实际绑定的端口而非 ":0"
	assert.NotEqual(t, ":0", m2.Addr())
	assert.Contains(t, m2.Addr(), ":")
}

func TestManager_Errors(t *testing.T) {
	m := newTestManager(t, http.NewServeMux())
	ch := m.Errors()
	require.NotNil(t, ch)

	select {
	case err := <-ch:
		t.Fatalf("unexpected error: %v", err)
	default:
	}
}
