package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenTokenizer 用 tiktoken 为 OpenAI 系模型做精确计数.
// DeepSeek 系模型的分词与 cl100k_base 足够接近, 预算检查用它近似。
type TiktokenTokenizer struct {
	model     string
	encoding  string
	maxTokens int
	enc       *tiktoken.Tiktoken
	once      sync.Once
	initErr   error
}

type encodingInfo struct {
	encoding  string
	maxTokens int
}

// modelEncodings 将模型名称映射到其 tiktoken 编码和上下文大小。
var modelEncodings = map[string]encodingInfo{
	"gpt-4o":                          {encoding: "o200k_base", maxTokens: 128000},
	"gpt-4o-mini":                     {encoding: "o200k_base", maxTokens: 128000},
	"gpt-4-turbo":                     {encoding: "cl100k_base", maxTokens: 128000},
	"gpt-4":                           {encoding: "cl100k_base", maxTokens: 8192},
	"gpt-3.5-turbo":                   {encoding: "cl100k_base", maxTokens: 16385},
	"deepseek-chat":                   {encoding: "cl100k_base", maxTokens: 64000},
	"deepseek-reasoner":               {encoding: "cl100k_base", maxTokens: 64000},
	"deepseek/deepseek-chat-v3-0324":  {encoding: "cl100k_base", maxTokens: 64000},
	"deepseek/deepseek-chat":          {encoding: "cl100k_base", maxTokens: 64000},
}

// encodingFor 先精确匹配再前缀匹配, 未知模型退回 cl100k_base。
func encodingFor(model string) encodingInfo {
	if info, ok := modelEncodings[model]; ok {
		return info
	}
	for prefix, info := range modelEncodings {
		if strings.HasPrefix(model, prefix) {
			return info
		}
	}
	return encodingInfo{encoding: "cl100k_base", maxTokens: 8192}
}

// NewTiktokenTokenizer 为给定模型创建 tiktoken 分词器.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	info := encodingFor(model)
	return &TiktokenTokenizer{
		model:     model,
		encoding:  info.encoding,
		maxTokens: info.maxTokens,
	}, nil
}

// init 延迟初始化 tiktoken 编码(首次使用时可能下载数据).
func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	tokens := t.enc.Encode(text, nil, nil)
	return len(tokens), nil
}

func (t *TiktokenTokenizer) CountMessages(messages []Message) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}

	total := 0
	for _, msg := range messages {
		// 每条消息的开销: <|start|>role\n content<|end|>\n
		total += 4
		tokens := t.enc.Encode(msg.Content, nil, nil)
		total += len(tokens)
		roleTokens := t.enc.Encode(msg.Role, nil, nil)
		total += len(roleTokens)
	}
	total += 3 // conversation-end overhead
	return total, nil
}

func (t *TiktokenTokenizer) MaxTokens() int {
	return t.maxTokens
}

func (t *TiktokenTokenizer) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// RegisterDefaultTokenizers 登记所有已知模型的分词器。
func RegisterDefaultTokenizers() {
	for model := range modelEncodings {
		t, err := NewTiktokenTokenizer(model)
		if err != nil {
			continue
		}
		RegisterTokenizer(model, t)
	}
}
