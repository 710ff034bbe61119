package guardrails

import (
	"context"
	"fmt"
	"strings"
)

// NonEmptyValidator 非空校验器
// 实现 Validator 接口，拦截空查询与仅含空白字符的查询。
// 命中即代表查询无需进入分类，调用方直接返回失败信封。
type NonEmptyValidator struct {
	priority int
}

// NewNonEmptyValidator 创建非空校验器
func NewNonEmptyValidator() *NonEmptyValidator {
	return &NonEmptyValidator{priority: 0} // 最先执行
}

// Name 返回校验器名称
func (v *NonEmptyValidator) Name() string {
	return "non_empty_validator"
}

// Priority 返回优先级
func (v *NonEmptyValidator) Priority() int {
	return v.priority
}

// Validate 执行非空校验
// 实现 Validator 接口
func (v *NonEmptyValidator) Validate(ctx context.Context, query string) (*Result, error) {
	result := NewResult()

	if strings.TrimSpace(query) != "" {
		return result, nil
	}

	result.Metadata["raw_length"] = len(query)
	result.AddError(ValidationError{
		Code:     ErrCodeEmptyQuery,
		Message:  "查询内容为空或仅包含空白字符",
		Severity: SeverityHigh,
	})

	return result, nil
}

// LengthValidatorConfig 长度校验器配置
type LengthValidatorConfig struct {
	// MaxLength 最大长度（字符数）
	MaxLength int
	// Priority 校验器优先级
	Priority int
}

// DefaultLengthValidatorConfig 返回默认配置
func DefaultLengthValidatorConfig() *LengthValidatorConfig {
	return &LengthValidatorConfig{
		MaxLength: 2000,
		Priority:  10,
	}
}

// LengthValidator 长度校验器
// 实现 Validator 接口，拒绝超过长度预算的查询。
// 截断会悄悄改变查询语义，所以超限一律拒绝而不是截断。
type LengthValidator struct {
	maxLength int
	priority  int
}

// NewLengthValidator 创建长度校验器
func NewLengthValidator(config *LengthValidatorConfig) *LengthValidator {
	if config == nil {
		config = DefaultLengthValidatorConfig()
	}

	return &LengthValidator{
		maxLength: config.MaxLength,
		priority:  config.Priority,
	}
}

// Name 返回校验器名称
func (v *LengthValidator) Name() string {
	return "length_validator"
}

// Priority 返回优先级
func (v *LengthValidator) Priority() int {
	return v.priority
}

// Validate 执行长度校验
// 实现 Validator 接口
func (v *LengthValidator) Validate(ctx context.Context, query string) (*Result, error) {
	result := NewResult()

	queryLen := len([]rune(query)) // 使用 rune 计算字符数，中文按单字计数
	if queryLen <= v.maxLength {
		return result, nil
	}

	result.Metadata["original_length"] = queryLen
	result.Metadata["max_length"] = v.maxLength
	result.Metadata["exceeded_by"] = queryLen - v.maxLength

	result.AddError(ValidationError{
		Code:     ErrCodeMaxLengthExceeded,
		Message:  fmt.Sprintf("查询长度 %d 超过最大限制 %d", queryLen, v.maxLength),
		Severity: SeverityHigh,
	})

	return result, nil
}

// GetMaxLength 返回配置的最大长度
func (v *LengthValidator) GetMaxLength() int {
	return v.maxLength
}

// KeywordMatch 关键词匹配结果
type KeywordMatch struct {
	Keyword  string `json:"keyword"`
	Position int    `json:"position"`
}

// KeywordValidatorConfig 关键词校验器配置
type KeywordValidatorConfig struct {
	// BlockedKeywords 屏蔽的关键词列表
	BlockedKeywords []string
	// Severity 命中时的严重级别
	Severity string
	// Priority 校验器优先级
	Priority int
}

// DefaultKeywordValidatorConfig 返回默认配置
func DefaultKeywordValidatorConfig() *KeywordValidatorConfig {
	return &KeywordValidatorConfig{
		BlockedKeywords: []string{},
		Severity:        SeverityMedium,
		Priority:        20,
	}
}

// KeywordValidator 关键词校验器
// 实现 Validator 接口，检测业务侧配置的屏蔽关键词。
// 匹配始终不区分大小写。
type KeywordValidator struct {
	blockedKeywords []string
	severity        string
	priority        int
}

// NewKeywordValidator 创建关键词校验器
func NewKeywordValidator(config *KeywordValidatorConfig) *KeywordValidator {
	if config == nil {
		config = DefaultKeywordValidatorConfig()
	}

	keywords := make([]string, len(config.BlockedKeywords))
	copy(keywords, config.BlockedKeywords)

	severity := config.Severity
	if severity == "" {
		severity = SeverityMedium
	}

	return &KeywordValidator{
		blockedKeywords: keywords,
		severity:        severity,
		priority:        config.Priority,
	}
}

// Name 返回校验器名称
func (v *KeywordValidator) Name() string {
	return "keyword_validator"
}

// Priority 返回优先级
func (v *KeywordValidator) Priority() int {
	return v.priority
}

// Validate 执行关键词校验
// 实现 Validator 接口
func (v *KeywordValidator) Validate(ctx context.Context, query string) (*Result, error) {
	result := NewResult()

	matches := v.Detect(query)
	if len(matches) == 0 {
		return result, nil
	}

	result.Metadata["keyword_matches"] = matches
	result.Metadata["keyword_count"] = len(matches)

	result.AddError(ValidationError{
		Code:     ErrCodeBlockedKeyword,
		Message:  formatKeywordMessage(matches),
		Severity: v.severity,
	})

	return result, nil
}

// Detect 检测查询中的所有屏蔽关键词
func (v *KeywordValidator) Detect(query string) []KeywordMatch {
	var matches []KeywordMatch

	searchQuery := strings.ToLower(query)

	for _, keyword := range v.blockedKeywords {
		if keyword == "" {
			continue
		}
		searchKeyword := strings.ToLower(keyword)

		// 查找所有匹配位置
		startPos := 0
		for {
			idx := strings.Index(searchQuery[startPos:], searchKeyword)
			if idx == -1 {
				break
			}

			actualPos := startPos + idx
			matches = append(matches, KeywordMatch{
				Keyword:  keyword,
				Position: actualPos,
			})

			startPos = actualPos + len(searchKeyword)
		}
	}

	return matches
}

// GetBlockedKeywords 返回屏蔽关键词列表
func (v *KeywordValidator) GetBlockedKeywords() []string {
	result := make([]string, len(v.blockedKeywords))
	copy(result, v.blockedKeywords)
	return result
}

// formatKeywordMessage 格式化关键词错误消息
func formatKeywordMessage(matches []KeywordMatch) string {
	// 收集唯一的关键词
	keywords := make([]string, 0)
	seen := make(map[string]bool)
	for _, match := range matches {
		lowerKeyword := strings.ToLower(match.Keyword)
		if !seen[lowerKeyword] {
			seen[lowerKeyword] = true
			keywords = append(keywords, match.Keyword)
		}
	}

	if len(keywords) == 1 {
		return fmt.Sprintf("查询包含被屏蔽的关键词: %s", keywords[0])
	}

	return fmt.Sprintf("查询包含 %d 个被屏蔽的关键词: %s", len(keywords), strings.Join(keywords, ", "))
}
