package guardrails

// InputConfig 标准输入防护链配置
type InputConfig struct {
	// MaxQueryLength 查询最大长度（rune 数）
	MaxQueryLength int
	// BlockedKeywords 业务侧屏蔽关键词，为空则不挂载关键词校验器
	BlockedKeywords []string
	// InjectionDetection 是否启用注入检测
	InjectionDetection bool
}

// DefaultInputConfig 返回默认配置
func DefaultInputConfig() *InputConfig {
	return &InputConfig{
		MaxQueryLength:     2000,
		BlockedKeywords:    nil,
		InjectionDetection: true,
	}
}

// NewInputChain 组装标准输入防护链。
// 固定顺序：非空 → 长度 → 屏蔽词 → 注入检测。
// 路由层在分类之前执行该链，链路未通过的查询不会触发任何模型调用。
func NewInputChain(config *InputConfig) *Chain {
	if config == nil {
		config = DefaultInputConfig()
	}

	maxLength := config.MaxQueryLength
	if maxLength <= 0 {
		maxLength = DefaultLengthValidatorConfig().MaxLength
	}

	chain := NewChain(nil)
	chain.Add(NewNonEmptyValidator())
	chain.Add(NewLengthValidator(&LengthValidatorConfig{
		MaxLength: maxLength,
		Priority:  10,
	}))

	if len(config.BlockedKeywords) > 0 {
		chain.Add(NewKeywordValidator(&KeywordValidatorConfig{
			BlockedKeywords: config.BlockedKeywords,
			Severity:        SeverityMedium,
			Priority:        20,
		}))
	}

	if config.InjectionDetection {
		chain.Add(NewInjectionDetector(nil))
	}

	return chain
}
