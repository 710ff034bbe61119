// 结构化包通过反射从 Go 类型生成 JSON Schema.
package structured

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SchemaGenerator 利用反射从 Go 类型生成 JSON Schema.
type SchemaGenerator struct {
	// 跟踪已访问类型以处理递归结构
	visited map[reflect.Type]bool
}

// NewSchemaGenerator 创建一个新的 SchemaGenerator 实例.
func NewSchemaGenerator() *SchemaGenerator {
	return &SchemaGenerator{
		visited: make(map[reflect.Type]bool),
	}
}

// GenerateSchema 从 Go 类型生成一个 JSON Schema.
// 支持结构体、切片、map、指针和基本类型。
// 结构体字段使用 "json" 标签表示字段名, "jsonschema" 标签表示校验约束.
//
// 支持的 jsonschema 标签选项:
//   - required: 标记字段为必填
//   - minimum=0: 数值最小值
//   - maximum=100: 数值最大值
//   - minLength=1: 字符串最小长度
//   - maxLength=100: 字符串最大长度
//   - pattern=^[a-z]+$: 字符串正则约束
//   - format=email: 字符串格式 (email/uri/uuid/date-time 等)
//   - minItems=1: 数组最小项数
//   - maxItems=10: 数组最大项数
//   - description=...: 字段说明
//
// 选项之间用逗号分隔, 选项值本身不能包含逗号。
func (g *SchemaGenerator) GenerateSchema(t reflect.Type) (*JSONSchema, error) {
	// 每次顶层调用重置访问记录
	g.visited = make(map[reflect.Type]bool)
	return g.generateSchema(t)
}

// generateSchema 是内部递归实现。
func (g *SchemaGenerator) generateSchema(t reflect.Type) (*JSONSchema, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot generate schema for nil type")
	}

	// 解引用指针类型
	if t.Kind() == reflect.Ptr {
		return g.generateSchema(t.Elem())
	}

	// 递归类型返回占位对象
	if g.visited[t] {
		return &JSONSchema{Type: TypeObject}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return NewStringSchema(), nil

	case reflect.Bool:
		return NewBooleanSchema(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewIntegerSchema(), nil

	case reflect.Float32, reflect.Float64:
		return NewNumberSchema(), nil

	case reflect.Slice, reflect.Array:
		return g.generateArraySchema(t)

	case reflect.Map:
		return g.generateMapSchema(t)

	case reflect.Struct:
		return g.generateStructSchema(t)

	case reflect.Interface:
		// 接口映射到任意类型
		return &JSONSchema{}, nil

	default:
		return nil, fmt.Errorf("unsupported type: %s", t.Kind())
	}
}

// generateArraySchema 为切片/数组类型生成子 Schema。
func (g *SchemaGenerator) generateArraySchema(t reflect.Type) (*JSONSchema, error) {
	elemSchema, err := g.generateSchema(t.Elem())
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for array element: %w", err)
	}
	return NewArraySchema(elemSchema), nil
}

// generateMapSchema 为 map 类型生成 Schema。
func (g *SchemaGenerator) generateMapSchema(t reflect.Type) (*JSONSchema, error) {
	// map 表示为带 additionalProperties 的对象
	valueSchema, err := g.generateSchema(t.Elem())
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for map value: %w", err)
	}

	schema := NewObjectSchema()
	schema.AdditionalProperties = &AdditionalProperties{
		Allowed: true,
		Schema:  valueSchema,
	}
	return schema, nil
}

// generateStructSchema 为结构体类型生成 Schema。
func (g *SchemaGenerator) generateStructSchema(t reflect.Type) (*JSONSchema, error) {
	// 标记已访问以处理递归类型
	g.visited[t] = true
	defer func() { g.visited[t] = false }()

	schema := NewObjectSchema()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// 跳过未导出字段
		if !field.IsExported() {
			continue
		}

		// 从 json 标签取字段名, 缺省用字段名
		fieldName := getJSONFieldName(field)
		if fieldName == "-" {
			continue
		}

		// 生成字段类型的 Schema
		fieldSchema, err := g.generateSchema(field.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for field %s: %w", field.Name, err)
		}

		// 应用 jsonschema 标签约束
		if err := applyJSONSchemaTag(fieldSchema, field); err != nil {
			return nil, fmt.Errorf("failed to apply jsonschema tag for field %s: %w", field.Name, err)
		}

		// 检查字段是否必填
		if isFieldRequired(field) {
			schema.Required = append(schema.Required, fieldName)
		}

		schema.Properties[fieldName] = fieldSchema
	}

	return schema, nil
}

// getJSONFieldName 从 json 标签提取字段名, 否则返回结构体字段名。
func getJSONFieldName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return field.Name
	}

	// json 标签格式: "name,options"
	parts := strings.Split(jsonTag, ",")
	name := parts[0]

	if name == "" {
		return field.Name
	}

	return name
}

// isFieldRequired 检查字段是否通过 jsonschema 标签标记为必填。
func isFieldRequired(field reflect.StructField) bool {
	jsonschemaTag := field.Tag.Get("jsonschema")
	if jsonschemaTag == "" {
		return false
	}

	options := parseTagOptions(jsonschemaTag)
	_, required := options["required"]
	return required
}

// applyJSONSchemaTag 将 jsonschema 标签约束应用到 Schema。
func applyJSONSchemaTag(schema *JSONSchema, field reflect.StructField) error {
	jsonschemaTag := field.Tag.Get("jsonschema")
	if jsonschemaTag == "" {
		return nil
	}

	options := parseTagOptions(jsonschemaTag)

	// 应用描述
	if desc, ok := options["description"]; ok {
		schema.Description = desc
	}

	// 应用字符串约束
	if minLen, ok := options["minLength"]; ok {
		if v, err := strconv.Atoi(minLen); err == nil {
			schema.MinLength = &v
		}
	}
	if maxLen, ok := options["maxLength"]; ok {
		if v, err := strconv.Atoi(maxLen); err == nil {
			schema.MaxLength = &v
		}
	}
	if pattern, ok := options["pattern"]; ok {
		schema.Pattern = pattern
	}
	if format, ok := options["format"]; ok {
		schema.Format = StringFormat(format)
	}

	// 应用数值约束
	if min, ok := options["minimum"]; ok {
		if v, err := strconv.ParseFloat(min, 64); err == nil {
			schema.Minimum = &v
		}
	}
	if max, ok := options["maximum"]; ok {
		if v, err := strconv.ParseFloat(max, 64); err == nil {
			schema.Maximum = &v
		}
	}

	// 应用数组约束
	if minItems, ok := options["minItems"]; ok {
		if v, err := strconv.Atoi(minItems); err == nil {
			schema.MinItems = &v
		}
	}
	if maxItems, ok := options["maxItems"]; ok {
		if v, err := strconv.Atoi(maxItems); err == nil {
			schema.MaxItems = &v
		}
	}

	return nil
}

// parseTagOptions 将 jsonschema 标签字符串解析为选项 map。
// 格式: "option1,option2=value2,option3=value3"。值不能包含逗号。
func parseTagOptions(tag string) map[string]string {
	options := make(map[string]string)
	if tag == "" {
		return options
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// key=value 形式
		if idx := strings.Index(part, "="); idx > 0 {
			key := part[:idx]
			value := part[idx+1:]
			options[key] = value
		} else {
			// 布尔选项 (如 "required")
			options[part] = ""
		}
	}

	return options
}

// GenerateSchemaFromValue 从一个值的动态类型生成 JSON Schema.
// 这是从值提取类型的便利函数.
func (g *SchemaGenerator) GenerateSchemaFromValue(v any) (*JSONSchema, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot generate schema from nil value")
	}
	return g.GenerateSchema(reflect.TypeOf(v))
}
