package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/agent/handoff"
	"github.com/BaSui01/tripflow/internal/cache"
	"github.com/BaSui01/tripflow/internal/history"
	"github.com/BaSui01/tripflow/types"
)

// =============================================================================
// 🧭 旅行查询 Handler
// =============================================================================

// historySaveTimeout 限制历史落库时间，落库脱离请求生命周期
const historySaveTimeout = 5 * time.Second

// QueryRouter 把一条旅行查询推进到终态
type QueryRouter interface {
	Route(ctx context.Context, query string) *handoff.Outcome
}

// TravelQueryRequest 查询请求体
type TravelQueryRequest struct {
	Query string `json:"query"`
}

// QueryHandler 旅行查询处理器。
// cache 与 store 可以为 nil，对应缓存/历史未启用。
type QueryHandler struct {
	router QueryRouter
	cache  *cache.Manager
	store  history.Store
	logger *zap.Logger
}

// NewQueryHandler 创建查询处理器
func NewQueryHandler(router QueryRouter, cacheManager *cache.Manager, store history.Store, logger *zap.Logger) *QueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{
		router: router,
		cache:  cacheManager,
		store:  store,
		logger: logger.With(zap.String("component", "query_handler")),
	}
}

// HandleQuery 处理旅行查询请求
// @Summary 提交旅行查询
// @Description 把自由文本旅行查询路由到专家 Agent，返回统一信封
// @Tags 查询
// @Accept json
// @Produce json
// @Param request body TravelQueryRequest true "旅行查询"
// @Success 200 {object} types.TravelResponse "查询结果信封（成功或降级失败）"
// @Failure 400 {object} types.TravelResponse "请求体损坏或查询为空"
// @Router /api/v1/query [post]
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req TravelQueryRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		h.logger.Info("rejected malformed query body", zap.Error(err))
		WriteJSON(w, http.StatusBadRequest, FailureEnvelope(types.ErrInvalidRequest))
		return
	}

	// 空白查询在路由之前拒绝，不触发任何 Agent
	if strings.TrimSpace(req.Query) == "" {
		h.logger.Info("rejected empty query")
		WriteJSON(w, http.StatusBadRequest, FailureEnvelope(types.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	if envelope := h.cachedEnvelope(ctx, req.Query); envelope != nil {
		WriteJSON(w, http.StatusOK, envelope)
		return
	}

	// 下游失败统一 200 + 失败信封，路由层已经把错误折叠进 outcome
	outcome := h.router.Route(ctx, req.Query)
	envelope := NewEnvelope(outcome)

	h.storeEnvelope(ctx, req.Query, envelope)
	WriteJSON(w, http.StatusOK, envelope)
	h.recordHistory(ctx, req.Query, outcome)
}

// cachedEnvelope 查询信封缓存，未命中或缓存不可用时返回 nil
func (h *QueryHandler) cachedEnvelope(ctx context.Context, query string) *types.TravelResponse {
	if h.cache == nil {
		return nil
	}
	envelope, err := h.cache.GetEnvelope(ctx, query)
	if err != nil {
		if !cache.IsCacheMiss(err) {
			h.logger.Warn("envelope cache read failed", zap.Error(err))
		}
		return nil
	}
	h.logger.Debug("envelope served from cache")
	return envelope
}

// storeEnvelope 尽力写入信封缓存，失败只记日志
func (h *QueryHandler) storeEnvelope(ctx context.Context, query string, envelope *types.TravelResponse) {
	if h.cache == nil {
		return
	}
	if err := h.cache.SetEnvelope(ctx, query, envelope); err != nil {
		h.logger.Warn("envelope cache write failed", zap.Error(err))
	}
}

// recordHistory 尽力记录一条查询历史，失败只记日志。
// 使用脱离请求取消的上下文，客户端断开不影响落库。
func (h *QueryHandler) recordHistory(ctx context.Context, query string, o *handoff.Outcome) {
	if h.store == nil || o == nil {
		return
	}

	record := &history.QueryRecord{
		Query:       query,
		Success:     o.Resolved(),
		AgentID:     o.AgentID,
		Redelegated: o.Redelegated,
		ElapsedMS:   o.Elapsed.Milliseconds(),
	}
	if o.Resolved() {
		record.ResponseType = string(o.Result.Type)
		if data, err := json.Marshal(o.Result); err == nil {
			record.ResponseJSON = string(data)
		}
	} else {
		record.ErrorCode = string(o.ErrorCode())
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	if err := h.store.Save(saveCtx, record); err != nil {
		h.logger.Warn("failed to record query history",
			zap.String("query_id", o.QueryID),
			zap.Error(err))
	}
}
