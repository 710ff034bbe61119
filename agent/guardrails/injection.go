package guardrails

import (
	"context"
	"regexp"
	"strings"
)

// InjectionPattern 注入模式
type InjectionPattern struct {
	Pattern     *regexp.Regexp
	Description string
	Severity    string
}

// InjectionDetectorConfig 注入检测器配置
type InjectionDetectorConfig struct {
	// CustomPatterns 自定义注入模式（正则，匹配不区分大小写）
	CustomPatterns []string
	// Priority 校验器优先级
	Priority int
}

// DefaultInjectionDetectorConfig 返回默认配置
func DefaultInjectionDetectorConfig() *InjectionDetectorConfig {
	return &InjectionDetectorConfig{
		CustomPatterns: nil,
		Priority:       30,
	}
}

// InjectionDetector 提示注入检测器
// 实现 Validator 接口，识别查询中的指令覆盖、角色操纵与越狱模式。
// 命中 critical 级模式时触发 Tripwire，立即中断处理流程。
//
// 模式集针对旅行查询调校过：旅行用户会正常说出
// "act as my travel agent" 或 "updated instructions for my visa"，
// 这类话术不在检测范围内。
type InjectionDetector struct {
	patterns []*InjectionPattern
	priority int
}

// NewInjectionDetector 创建注入检测器
func NewInjectionDetector(config *InjectionDetectorConfig) *InjectionDetector {
	if config == nil {
		config = DefaultInjectionDetectorConfig()
	}

	detector := &InjectionDetector{
		patterns: defaultInjectionPatterns(),
		priority: config.Priority,
	}

	// 添加自定义模式，无法编译的模式直接跳过
	for _, customPattern := range config.CustomPatterns {
		if re, err := regexp.Compile("(?i)" + customPattern); err == nil {
			detector.patterns = append(detector.patterns, &InjectionPattern{
				Pattern:     re,
				Description: "Custom injection pattern",
				Severity:    SeverityHigh,
			})
		}
	}

	return detector
}

// defaultInjectionPatterns 返回默认的注入检测模式
func defaultInjectionPatterns() []*InjectionPattern {
	return []*InjectionPattern{
		// 英语模式 - 指令覆盖尝试
		{
			Pattern:     regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions?|prompts?|rules?|guidelines?)`),
			Description: "Attempt to ignore previous instructions",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|earlier|the\s+above)\s+(instructions?|prompts?|rules?|guidelines?)`),
			Description: "Attempt to disregard instructions",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)forget\s+(everything|all)\s+you\s+(know|learned|were\s+told)`),
			Description: "Attempt to make model forget context",
			Severity:    SeverityCritical,
		},
		// 冒号收尾才算注入指令，"updated instructions for my visa" 这类正常旅行话术不命中
		{
			Pattern:     regexp.MustCompile(`(?i)(new|override)\s+instructions?\s*:`),
			Description: "Attempt to inject new instructions",
			Severity:    SeverityHigh,
		},
		// 角色操纵尝试
		{
			Pattern:     regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\b`),
			Description: "Attempt to change model role",
			Severity:    SeverityHigh,
		},
		// 系统/角色标记
		{
			Pattern:     regexp.MustCompile(`(?i)^\s*system\s*:`),
			Description: "System role marker injection",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)^\s*assistant\s*:`),
			Description: "Assistant role marker injection",
			Severity:    SeverityHigh,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)<\s*system\s*>`),
			Description: "XML system tag injection",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)\[\s*INST\s*\]`),
			Description: "Instruction tag injection",
			Severity:    SeverityHigh,
		},
		// 越狱尝试
		{
			Pattern:     regexp.MustCompile(`(?i)do\s+anything\s+now`),
			Description: "DAN jailbreak attempt",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)jailbreak`),
			Description: "Explicit jailbreak mention",
			Severity:    SeverityCritical,
		},
		// 中文模式 - 指令覆盖尝试
		{
			Pattern:     regexp.MustCompile(`忽略(之前|上面|以上|先前|前面)(的)?(指令|指示|规则|提示|要求)`),
			Description: "尝试忽略之前的指令",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`忘(记|掉)(之前|上面|以上|所有|一切)(的)?(内容|指令|指示|规则)`),
			Description: "尝试让模型忘记上下文",
			Severity:    SeverityCritical,
		},
		{
			Pattern:     regexp.MustCompile(`不要(遵守|遵循|听从)(之前|上面|以上|任何)(的)?(指令|指示|规则)`),
			Description: "尝试让模型不遵守指令",
			Severity:    SeverityCritical,
		},
		// 中文角色操纵
		{
			Pattern:     regexp.MustCompile(`你现在是(一个|一名)?`),
			Description: "尝试改变模型角色",
			Severity:    SeverityHigh,
		},
		{
			Pattern:     regexp.MustCompile(`从现在开始(你是|你要|你将)`),
			Description: "尝试改变模型行为",
			Severity:    SeverityHigh,
		},
		// 分隔符逃逸
		{
			Pattern:     regexp.MustCompile(`(?i)---+\s*(system|instructions?)\s*---+`),
			Description: "Delimiter-based injection attempt",
			Severity:    SeverityHigh,
		},
		{
			Pattern:     regexp.MustCompile("(?i)```\\s*(system|instructions?)"),
			Description: "Code block delimiter escape",
			Severity:    SeverityHigh,
		},
		{
			Pattern:     regexp.MustCompile(`(?i)\]\s*\[\s*(system|inst)\b`),
			Description: "Bracket delimiter escape",
			Severity:    SeverityHigh,
		},
	}
}

// Name 返回校验器名称
func (d *InjectionDetector) Name() string {
	return "injection_detector"
}

// Priority 返回优先级
func (d *InjectionDetector) Priority() int {
	return d.priority
}

// InjectionMatch 注入匹配结果
type InjectionMatch struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Position    int    `json:"position"`
	MatchedText string `json:"matched_text"`
}

// Validate 执行注入检测
// 实现 Validator 接口
func (d *InjectionDetector) Validate(ctx context.Context, query string) (*Result, error) {
	result := NewResult()

	matches := d.Detect(query)
	if len(matches) == 0 {
		return result, nil
	}

	// 找出最高严重级别
	highestSeverity := SeverityLow
	for _, match := range matches {
		if compareSeverity(match.Severity, highestSeverity) > 0 {
			highestSeverity = match.Severity
		}
	}

	result.AddError(ValidationError{
		Code:     ErrCodeInjectionDetected,
		Message:  formatInjectionMessage(matches),
		Severity: highestSeverity,
	})

	result.Metadata["injection_matches"] = matches
	result.Metadata["injection_count"] = len(matches)

	// critical 级命中触发 Tripwire，整个处理流程立即中断
	if highestSeverity == SeverityCritical {
		result.Tripwire = true
	}

	return result, nil
}

// Detect 检测查询中的所有注入模式
func (d *InjectionDetector) Detect(query string) []InjectionMatch {
	var matches []InjectionMatch

	for _, pattern := range d.patterns {
		locs := pattern.Pattern.FindAllStringIndex(query, -1)
		for _, loc := range locs {
			matches = append(matches, InjectionMatch{
				Description: pattern.Description,
				Severity:    pattern.Severity,
				Position:    loc[0],
				MatchedText: query[loc[0]:loc[1]],
			})
		}
	}

	return matches
}

// formatInjectionMessage 格式化注入错误消息
func formatInjectionMessage(matches []InjectionMatch) string {
	// 收集唯一的描述
	descriptions := make([]string, 0)
	seen := make(map[string]bool)
	for _, match := range matches {
		if !seen[match.Description] {
			seen[match.Description] = true
			descriptions = append(descriptions, match.Description)
		}
	}

	if len(descriptions) == 1 {
		return "检测到提示注入攻击: " + descriptions[0]
	}

	return "检测到多个提示注入模式: " + strings.Join(descriptions, "; ")
}
