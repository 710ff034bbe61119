package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/tripflow/types"
)

// MaxRequestBodyBytes 限制请求体大小，超出后解码直接失败
const MaxRequestBodyBytes = 1 << 20 // 1 MB

// Response 统一 API 响应结构（健康、版本、历史等运维端点使用；
// 查询端点使用 types.TravelResponse 信封）
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorInfo 错误信息结构
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
	HTTPStatus int    `json:"-"`
}

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// 响应头已写出, 编码失败时只能放弃剩余输出
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess 写入成功响应
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError 把 types.Error 映射成 HTTP 错误响应
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	status := err.HTTPStatus
	if status == 0 {
		status = mapErrorCodeToHTTPStatus(err.Code)
	}

	if logger != nil {
		logger.Error("API error",
			zap.String("code", string(err.Code)),
			zap.String("message", err.Message),
			zap.Int("status", status),
			zap.Bool("retryable", err.Retryable),
			zap.Error(err.Cause),
		)
	}

	WriteJSON(w, status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:       string(err.Code),
			Message:    err.Message,
			Retryable:  err.Retryable,
			HTTPStatus: status,
		},
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage 写入简单错误消息
func WriteErrorMessage(w http.ResponseWriter, status int, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, types.NewError(code, message).WithHTTPStatus(status), logger)
}

// 未列出的错误码一律按 500 处理
var httpStatusByCode = map[types.ErrorCode]int{
	types.ErrInvalidRequest:       http.StatusBadRequest,
	types.ErrInvalidInput:         http.StatusBadRequest,
	types.ErrAuthentication:       http.StatusUnauthorized,
	types.ErrGuardrailsViolated:   http.StatusForbidden,
	types.ErrModelNotFound:        http.StatusNotFound,
	types.ErrAgentNotFound:        http.StatusNotFound,
	types.ErrRateLimited:          http.StatusTooManyRequests,
	types.ErrContextTooLong:       http.StatusRequestEntityTooLarge,
	types.ErrSchemaValidation:     http.StatusUnprocessableEntity,
	types.ErrTimeout:              http.StatusGatewayTimeout,
	types.ErrUpstreamTimeout:      http.StatusGatewayTimeout,
	types.ErrServiceUnavailable:   http.StatusServiceUnavailable,
	types.ErrProviderUnavailable:  http.StatusServiceUnavailable,
	types.ErrUpstreamError:        http.StatusBadGateway,
	types.ErrCompletion:           http.StatusBadGateway,
	types.ErrInternalError:        http.StatusInternalServerError,
	types.ErrInvalidTransition:    http.StatusInternalServerError,
	types.ErrHandoffDepthExceeded: http.StatusInternalServerError,
}

func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DecodeJSONBody 严格解码 JSON 请求体：拒绝未知字段，限制 1 MB。
// 不直接写响应，由调用方决定失败时的信封形态。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return types.NewError(types.ErrInvalidRequest, "request body is empty")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return types.NewError(types.ErrInvalidRequest, "invalid JSON body").
			WithCause(err).
			WithHTTPStatus(http.StatusBadRequest)
	}
	return nil
}

// ResponseWriter 包装 http.ResponseWriter 以捕获状态码与响应大小
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode   int
	BytesWritten int64
	Written      bool
}

// NewResponseWriter 创建新的 ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
}

// WriteHeader 只记录第一次写入的状态码
func (rw *ResponseWriter) WriteHeader(code int) {
	if rw.Written {
		return
	}
	rw.StatusCode = code
	rw.Written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.BytesWritten += int64(n)
	return n, err
}
