package handlers

import (
	"github.com/BaSui01/tripflow/agent/handoff"
	"github.com/BaSui01/tripflow/types"
)

// =============================================================================
// 🧳 响应信封构建
// =============================================================================

// failureMessages 按错误码给出稳定的对外文案。
// 内部诊断（provider 报错、校验明细、堆栈）只进日志，不进信封。
var failureMessages = map[types.ErrorCode]string{
	types.ErrInvalidInput:         "Query must be a non-empty travel question.",
	types.ErrInvalidRequest:       "Request body must be a JSON object with a \"query\" field.",
	types.ErrGuardrailsViolated:   "Query was rejected by input safety checks.",
	types.ErrHandoffDepthExceeded: "The travel planner could not settle on a specialist for this query.",
	types.ErrSchemaValidation:     "The generated recommendation was malformed. Please try again.",
	types.ErrCompletion:           "The travel assistant could not complete the request. Please try again.",
	types.ErrContextTooLong:       "Query is too long. Please shorten it and try again.",
	types.ErrTimeout:              "The request timed out. Please try again.",
	types.ErrUpstreamTimeout:      "The request timed out. Please try again.",
	types.ErrRateLimited:          "Too many requests right now. Please try again shortly.",
	types.ErrUpstreamError:        "The travel assistant is temporarily unavailable.",
	types.ErrServiceUnavailable:   "The travel assistant is temporarily unavailable.",
	types.ErrProviderUnavailable:  "The travel assistant is temporarily unavailable.",
}

const defaultFailureMessage = "An internal error occurred while processing the query."

// NewEnvelope 把一次路由结果折叠成统一的响应信封。
// 永不失败：任何 outcome（包括 nil）都映射到一个合法信封。
func NewEnvelope(o *handoff.Outcome) *types.TravelResponse {
	if o == nil {
		return FailureEnvelope(types.ErrInternalError)
	}
	if o.Resolved() {
		rt := o.Result.Type
		return &types.TravelResponse{
			Success:      true,
			ResponseType: &rt,
			Data:         o.Result,
			Message:      rt.Label() + " generated successfully",
		}
	}
	return FailureEnvelope(o.ErrorCode())
}

// FailureEnvelope 构建一个失败信封：response_type 与 data 编码为 JSON null。
func FailureEnvelope(code types.ErrorCode) *types.TravelResponse {
	return &types.TravelResponse{
		Success: false,
		Message: failureMessage(code),
	}
}

// failureMessage 返回错误码对应的对外文案，未知码走内部错误文案
func failureMessage(code types.ErrorCode) string {
	if msg, ok := failureMessages[code]; ok {
		return msg
	}
	return defaultFailureMessage
}
