package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/internal/history"
	"github.com/BaSui01/tripflow/types"
)

// =============================================================================
// 📜 查询历史 Handler
// =============================================================================

// HistoryHandler 查询历史处理器
type HistoryHandler struct {
	store  history.Store
	logger *zap.Logger
}

// NewHistoryHandler 创建历史处理器。store 为 nil 表示历史未启用。
func NewHistoryHandler(store history.Store, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{
		store:  store,
		logger: logger.With(zap.String("component", "history_handler")),
	}
}

// HandleRecent 返回最近的查询记录
// @Summary 查询历史
// @Description 按时间倒序返回最近处理过的旅行查询
// @Tags 历史
// @Produce json
// @Param limit query int false "返回条数，默认 20，上限 100"
// @Success 200 {object} Response{data=[]history.QueryRecord} "查询记录"
// @Failure 400 {object} Response "limit 不是整数"
// @Failure 503 {object} Response "历史存储未启用"
// @Router /api/v1/history [get]
func (h *HistoryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteErrorMessage(w, http.StatusServiceUnavailable, types.ErrServiceUnavailable,
			"query history is not enabled", h.logger)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest,
				"query parameter 'limit' must be an integer", h.logger)
			return
		}
		limit = parsed
	}

	// 越界 limit 由存储层收敛到 [1, 100]
	records, err := h.store.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load query history", zap.Error(err))
		WriteError(w, types.NewError(types.ErrInternalError, "failed to load query history").
			WithCause(err), h.logger)
		return
	}

	WriteSuccess(w, records)
}
