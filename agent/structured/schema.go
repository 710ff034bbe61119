// Package structured provides schema modeling and validation for travel results.
package structured

import (
	"encoding/json"
	"fmt"
)

// SchemaType 是 JSON Schema 的类型关键字.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeNull    SchemaType = "null"
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
)

// StringFormat 是字符串 format 约束.
type StringFormat string

const (
	FormatDateTime StringFormat = "date-time"
	FormatDate     StringFormat = "date"
	FormatTime     StringFormat = "time"
	FormatEmail    StringFormat = "email"
	FormatURI      StringFormat = "uri"
	FormatUUID     StringFormat = "uuid"
)

// JSONSchema 建模旅行结果 Schema 使用到的 JSON Schema 子集:
// 扁平与嵌套对象、字符串数组、枚举, 以及常规字符串/数值约束.
// 生成器不产出的关键字 (oneOf、$ref、default 一类) 在这里没有位置.
type JSONSchema struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Type        SchemaType `json:"type,omitempty"`

	// object
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *AdditionalProperties  `json:"additionalProperties,omitempty"`

	// array
	Items       *JSONSchema `json:"items,omitempty"`
	MinItems    *int        `json:"minItems,omitempty"`
	MaxItems    *int        `json:"maxItems,omitempty"`
	UniqueItems *bool       `json:"uniqueItems,omitempty"`

	// enum / const
	Enum  []any `json:"enum,omitempty"`
	Const any   `json:"const,omitempty"`

	// string
	MinLength *int         `json:"minLength,omitempty"`
	MaxLength *int         `json:"maxLength,omitempty"`
	Pattern   string       `json:"pattern,omitempty"`
	Format    StringFormat `json:"format,omitempty"`

	// number / integer
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`
}

// AdditionalProperties 对应 additionalProperties 关键字, 在 JSON 里既可以是
// 布尔也可以是子 Schema.
type AdditionalProperties struct {
	Allowed bool
	Schema  *JSONSchema
}

// MarshalJSON 按布尔或子 Schema 输出.
func (ap *AdditionalProperties) MarshalJSON() ([]byte, error) {
	switch {
	case ap == nil:
		return json.Marshal(nil)
	case ap.Schema != nil:
		return json.Marshal(ap.Schema)
	default:
		return json.Marshal(ap.Allowed)
	}
}

// UnmarshalJSON 接受布尔或子 Schema 两种写法.
func (ap *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*ap = AdditionalProperties{Allowed: b}
		return nil
	}

	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("additionalProperties must be boolean or schema")
	}
	*ap = AdditionalProperties{Allowed: true, Schema: &schema}
	return nil
}

// ptr 把字面量提升成指针, 供可选约束字段使用.
func ptr[T any](v T) *T { return &v }

// clonePtr 深拷贝一个可选约束指针.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NewSchema 创建指定类型的空 Schema.
func NewSchema(t SchemaType) *JSONSchema { return &JSONSchema{Type: t} }

// NewObjectSchema 创建带空属性表的对象 Schema.
func NewObjectSchema() *JSONSchema {
	return &JSONSchema{Type: TypeObject, Properties: map[string]*JSONSchema{}}
}

// NewArraySchema 创建元素类型固定的数组 Schema.
func NewArraySchema(items *JSONSchema) *JSONSchema {
	return &JSONSchema{Type: TypeArray, Items: items}
}

// NewStringSchema 创建字符串 Schema.
func NewStringSchema() *JSONSchema { return NewSchema(TypeString) }

// NewNumberSchema 创建数值 Schema.
func NewNumberSchema() *JSONSchema { return NewSchema(TypeNumber) }

// NewIntegerSchema 创建整数 Schema.
func NewIntegerSchema() *JSONSchema { return NewSchema(TypeInteger) }

// NewBooleanSchema 创建布尔 Schema.
func NewBooleanSchema() *JSONSchema { return NewSchema(TypeBoolean) }

// NewEnumSchema 创建枚举 Schema.
func NewEnumSchema(values ...any) *JSONSchema { return &JSONSchema{Enum: values} }

// 下面的链式 setter 服务于生成器和测试中的手写 Schema.

func (s *JSONSchema) WithTitle(title string) *JSONSchema { s.Title = title; return s }

func (s *JSONSchema) WithDescription(desc string) *JSONSchema { s.Description = desc; return s }

func (s *JSONSchema) WithMinLength(n int) *JSONSchema { s.MinLength = ptr(n); return s }

func (s *JSONSchema) WithMaxLength(n int) *JSONSchema { s.MaxLength = ptr(n); return s }

func (s *JSONSchema) WithPattern(pattern string) *JSONSchema { s.Pattern = pattern; return s }

func (s *JSONSchema) WithFormat(format StringFormat) *JSONSchema { s.Format = format; return s }

func (s *JSONSchema) WithMinimum(min float64) *JSONSchema { s.Minimum = ptr(min); return s }

func (s *JSONSchema) WithMaximum(max float64) *JSONSchema { s.Maximum = ptr(max); return s }

func (s *JSONSchema) WithExclusiveMinimum(min float64) *JSONSchema {
	s.ExclusiveMinimum = ptr(min)
	return s
}

func (s *JSONSchema) WithExclusiveMaximum(max float64) *JSONSchema {
	s.ExclusiveMaximum = ptr(max)
	return s
}

func (s *JSONSchema) WithMinItems(n int) *JSONSchema { s.MinItems = ptr(n); return s }

func (s *JSONSchema) WithMaxItems(n int) *JSONSchema { s.MaxItems = ptr(n); return s }

func (s *JSONSchema) WithUniqueItems(unique bool) *JSONSchema { s.UniqueItems = ptr(unique); return s }

// WithAdditionalProperties 以布尔形式限制额外属性.
func (s *JSONSchema) WithAdditionalProperties(allowed bool) *JSONSchema {
	s.AdditionalProperties = &AdditionalProperties{Allowed: allowed}
	return s
}

// WithAdditionalPropertiesSchema 以子 Schema 形式约束额外属性.
func (s *JSONSchema) WithAdditionalPropertiesSchema(schema *JSONSchema) *JSONSchema {
	s.AdditionalProperties = &AdditionalProperties{Allowed: true, Schema: schema}
	return s
}

// AddProperty 向对象 Schema 增加一个属性.
func (s *JSONSchema) AddProperty(name string, prop *JSONSchema) *JSONSchema {
	if s.Properties == nil {
		s.Properties = map[string]*JSONSchema{}
	}
	s.Properties[name] = prop
	return s
}

// AddRequired 追加必填字段名.
func (s *JSONSchema) AddRequired(names ...string) *JSONSchema {
	s.Required = append(s.Required, names...)
	return s
}

// Clone 深拷贝 Schema, nil 安全.
func (s *JSONSchema) Clone() *JSONSchema {
	if s == nil {
		return nil
	}

	clone := *s
	clone.Items = s.Items.Clone()
	clone.MinItems = clonePtr(s.MinItems)
	clone.MaxItems = clonePtr(s.MaxItems)
	clone.UniqueItems = clonePtr(s.UniqueItems)
	clone.MinLength = clonePtr(s.MinLength)
	clone.MaxLength = clonePtr(s.MaxLength)
	clone.Minimum = clonePtr(s.Minimum)
	clone.Maximum = clonePtr(s.Maximum)
	clone.ExclusiveMinimum = clonePtr(s.ExclusiveMinimum)
	clone.ExclusiveMaximum = clonePtr(s.ExclusiveMaximum)

	if s.Properties != nil {
		clone.Properties = make(map[string]*JSONSchema, len(s.Properties))
		for name, prop := range s.Properties {
			clone.Properties[name] = prop.Clone()
		}
	}
	if s.Required != nil {
		clone.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		clone.Enum = append([]any(nil), s.Enum...)
	}
	if s.AdditionalProperties != nil {
		clone.AdditionalProperties = &AdditionalProperties{
			Allowed: s.AdditionalProperties.Allowed,
			Schema:  s.AdditionalProperties.Schema.Clone(),
		}
	}
	return &clone
}

// ToJSON 序列化为紧凑 JSON.
func (s *JSONSchema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ToJSONIndent 序列化为缩进 JSON, 适合嵌入提示词.
func (s *JSONSchema) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// FromJSON 从 JSON 解析 Schema.
func FromJSON(data []byte) (*JSONSchema, error) {
	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON schema: %w", err)
	}
	return &schema, nil
}

// IsRequired 报告属性是否必填.
func (s *JSONSchema) IsRequired(name string) bool {
	for _, req := range s.Required {
		if req == name {
			return true
		}
	}
	return false
}

// GetProperty 按名称返回属性 Schema, 不存在时返回 nil.
func (s *JSONSchema) GetProperty(name string) *JSONSchema {
	return s.Properties[name]
}

// HasProperty 报告属性是否存在.
func (s *JSONSchema) HasProperty(name string) bool {
	_, ok := s.Properties[name]
	return ok
}
