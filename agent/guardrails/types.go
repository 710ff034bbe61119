package guardrails

import (
	"context"
	"errors"
	"fmt"
)

// Validator 输入校验器接口
// 在查询进入分类与分派之前执行安全与合规检查
type Validator interface {
	// Validate 执行校验，返回校验结果
	Validate(ctx context.Context, query string) (*Result, error)
	// Name 返回校验器名称
	Name() string
	// Priority 返回优先级（数字越小优先级越高）
	Priority() int
}

// Result 校验结果
type Result struct {
	Valid    bool              `json:"valid"`
	Tripwire bool              `json:"tripwire,omitempty"` // 触发即中断整个处理流程
	Errors   []ValidationError `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

// NewResult 创建一个有效的校验结果
func NewResult() *Result {
	return &Result{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []string{},
		Metadata: make(map[string]any),
	}
}

// AddError 添加校验错误并将结果标记为无效
func (r *Result) AddError(err ValidationError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// AddWarning 添加警告信息
func (r *Result) AddWarning(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// Merge 合并另一个校验结果
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	if !other.Valid {
		r.Valid = false
	}
	if other.Tripwire {
		r.Tripwire = true
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	for k, v := range other.Metadata {
		r.Metadata[k] = v
	}
}

// ValidationError 结构化校验错误
type ValidationError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // critical, high, medium, low
}

// Severity 常量定义
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// 错误代码常量
const (
	ErrCodeEmptyQuery        = "EMPTY_QUERY"
	ErrCodeMaxLengthExceeded = "MAX_LENGTH_EXCEEDED"
	ErrCodeBlockedKeyword    = "BLOCKED_KEYWORD"
	ErrCodeInjectionDetected = "INJECTION_DETECTED"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
)

// TripwireError 表示 Tripwire 被触发的错误。
// 当校验器返回 Tripwire=true 时，整个处理流程应立即中断，
// 查询不再进入分类与模型调用。
type TripwireError struct {
	ValidatorName string
	Result        *Result
}

// Error 实现 error 接口
func (e *TripwireError) Error() string {
	return fmt.Sprintf("tripwire triggered by validator %q", e.ValidatorName)
}

// IsTripwire 判断错误链中是否包含 TripwireError
func IsTripwire(err error) bool {
	var te *TripwireError
	return errors.As(err, &te)
}

var severityRank = map[string]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// compareSeverity 返回 >0 当 a 比 b 严重, <0 当更轻, 0 相等
func compareSeverity(a, b string) int {
	return severityRank[a] - severityRank[b]
}
