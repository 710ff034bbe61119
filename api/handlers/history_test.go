package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/internal/history"
	"github.com/BaSui01/tripflow/types"
)

// =============================================================================
// 🧪 HistoryHandler 测试
// =============================================================================

// failingStore 的 Recent 总是失败
type failingStore struct {
	recordingStore
}

func (s *failingStore) Recent(ctx context.Context, limit int) ([]history.QueryRecord, error) {
	return nil, assert.AnError
}

func seededStore(n int) *recordingStore {
	store := &recordingStore{}
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		store.records = append(store.records, &history.QueryRecord{
			ID:           "rec-" + string(rune('a'+i)),
			Query:        "plan a trip to tokyo",
			Success:      true,
			ResponseType: string(types.ResponseTypeTravelPlan),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}
	return store
}

func getHistory(t *testing.T, handler *HistoryHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	handler.HandleRecent(w, r)
	return w
}

func TestHistoryHandler_HandleRecent(t *testing.T) {
	handler := NewHistoryHandler(seededStore(3), zap.NewNop())

	w := getHistory(t, handler, "/api/v1/history")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Success)

	records, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, records, 3)

	// 最新的记录排在最前
	first, ok := records[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rec-c", first["id"])
}

func TestHistoryHandler_LimitParameter(t *testing.T) {
	handler := NewHistoryHandler(seededStore(5), zap.NewNop())

	w := getHistory(t, handler, "/api/v1/history?limit=2")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	records, ok := resp.Data.([]any)
	require.True(t, ok)
	assert.Len(t, records, 2)
}

func TestHistoryHandler_InvalidLimit(t *testing.T) {
	handler := NewHistoryHandler(seededStore(1), zap.NewNop())

	w := getHistory(t, handler, "/api/v1/history?limit=abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrInvalidRequest), resp.Error.Code)
}

func TestHistoryHandler_StoreError(t *testing.T) {
	handler := NewHistoryHandler(&failingStore{}, zap.NewNop())

	w := getHistory(t, handler, "/api/v1/history")

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrInternalError), resp.Error.Code)
}

func TestHistoryHandler_Disabled(t *testing.T) {
	handler := NewHistoryHandler(nil, zap.NewNop())

	w := getHistory(t, handler, "/api/v1/history")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(types.ErrServiceUnavailable), resp.Error.Code)
}
