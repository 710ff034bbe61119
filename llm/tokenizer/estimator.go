package tokenizer

import "unicode/utf8"

// 每类字符的经验 token 比率: CJK 约 1.5 字符一个 token, 其余按 4 算.
const (
	cjkCharsPerToken   = 1.5
	asciiCharsPerToken = 4.0
)

// EstimatorTokenizer 按字符数估算 token, 区分 CJK 与 ASCII,
// 是没有精确编码数据时的预算检查兜底.
type EstimatorTokenizer struct {
	model     string
	maxTokens int
}

// NewEstimatorTokenizer 创建通用估算器. maxTokens <= 0 时取 4096.
func NewEstimatorTokenizer(model string, maxTokens int) *EstimatorTokenizer {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &EstimatorTokenizer{model: model, maxTokens: maxTokens}
}

func (e *EstimatorTokenizer) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	cjk := 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		}
	}
	other := utf8.RuneCountInString(text) - cjk

	estimated := int(float64(cjk)/cjkCharsPerToken + float64(other)/asciiCharsPerToken)
	if estimated == 0 {
		estimated = 1
	}
	return estimated, nil
}

func (e *EstimatorTokenizer) CountMessages(messages []Message) (int, error) {
	// 每条消息按 4 token 的角色/分隔开销计, 会话结尾再加 3.
	total := 3
	for _, msg := range messages {
		tokens, err := e.CountTokens(msg.Content)
		if err != nil {
			return 0, err
		}
		total += tokens + 4
	}
	return total, nil
}

func (e *EstimatorTokenizer) MaxTokens() int {
	return e.maxTokens
}

func (e *EstimatorTokenizer) Name() string {
	return "estimator"
}

// isCJK 报告 r 是否落在常用 CJK 区段.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0x20000 && r <= 0x2A6DF: // CJK Extension B
		return true
	case r >= 0xF900 && r <= 0xFAFF: // CJK Compatibility Ideographs
		return true
	case r >= 0x3000 && r <= 0x303F: // CJK Symbols and Punctuation
		return true
	case r >= 0xFF00 && r <= 0xFFEF: // Halfwidth and Fullwidth Forms
		return true
	}
	return false
}
