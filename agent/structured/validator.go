package structured

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// SchemaValidator validates JSON data against a JSONSchema.
type SchemaValidator interface {
	Validate(data []byte, schema *JSONSchema) error
}

// ParseError is a single field-level violation. Path is dotted with [i]
// segments for array elements; the root has an empty path.
type ParseError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors aggregates every violation found in one pass. Validation
// is all-or-nothing per record, so callers get the full list at once.
type ValidationErrors struct {
	Errors []ParseError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// 内建 format 的校验正则. date-time/date/time 按 ISO 8601 的宽松写法.
var formatPatterns = map[StringFormat]*regexp.Regexp{
	FormatEmail:    regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`),
	FormatURI:      regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`),
	FormatUUID:     regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`),
	FormatDateTime: regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(.\d+)?(Z|[+-]\d{2}:\d{2})?$`),
	FormatDate:     regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
	FormatTime:     regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(.\d+)?(Z|[+-]\d{2}:\d{2})?$`),
}

// DefaultValidator is the stock SchemaValidator. Validation is pure: the
// same payload and schema always produce the same verdict.
type DefaultValidator struct {
	formats map[StringFormat]func(string) bool
}

// NewValidator creates a DefaultValidator with the built-in string formats.
func NewValidator() *DefaultValidator {
	formats := make(map[StringFormat]func(string) bool, len(formatPatterns))
	for format, pattern := range formatPatterns {
		formats[format] = pattern.MatchString
	}
	return &DefaultValidator{formats: formats}
}

// RegisterFormat adds or replaces a string format check.
func (v *DefaultValidator) RegisterFormat(format StringFormat, check func(string) bool) {
	v.formats[format] = check
}

// Validate checks data against schema and returns nil or *ValidationErrors.
// A nil schema accepts everything.
func (v *DefaultValidator) Validate(data []byte, schema *JSONSchema) error {
	if schema == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationErrors{Errors: []ParseError{
			{Message: fmt.Sprintf("invalid JSON: %v", err)},
		}}
	}

	w := &schemaWalker{formats: v.formats}
	w.check(value, schema, "")
	if len(w.errs) > 0 {
		return &ValidationErrors{Errors: w.errs}
	}
	return nil
}

// schemaWalker 随递归下降累积违规, 一次调用收集全部错误.
type schemaWalker struct {
	formats map[StringFormat]func(string) bool
	errs    []ParseError
}

func (w *schemaWalker) fail(path, format string, args ...any) {
	w.errs = append(w.errs, ParseError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (w *schemaWalker) check(value any, schema *JSONSchema, path string) {
	if schema == nil {
		return
	}

	// const 优先于其它一切约束
	if schema.Const != nil {
		if !jsonEqual(value, schema.Const) {
			w.fail(path, "value must be %v", schema.Const)
		}
		return
	}

	if len(schema.Enum) > 0 && !containsValue(schema.Enum, value) {
		w.fail(path, "value must be one of: %v", schema.Enum)
	}

	switch schema.Type {
	case TypeString:
		w.checkString(value, schema, path)
	case TypeNumber:
		if num, ok := asNumber(value); ok {
			w.checkBounds(num, schema, path)
		} else {
			w.fail(path, "expected number, got %T", value)
		}
	case TypeInteger:
		w.checkInteger(value, schema, path)
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			w.fail(path, "expected boolean, got %T", value)
		}
	case TypeNull:
		if value != nil {
			w.fail(path, "expected null, got %T", value)
		}
	case TypeObject:
		w.checkObject(value, schema, path)
	case TypeArray:
		w.checkArray(value, schema, path)
	}
}

func (w *schemaWalker) checkString(value any, schema *JSONSchema, path string) {
	str, ok := value.(string)
	if !ok {
		w.fail(path, "expected string, got %T", value)
		return
	}

	if schema.MinLength != nil && len(str) < *schema.MinLength {
		w.fail(path, "string length %d is less than minimum %d", len(str), *schema.MinLength)
	}
	if schema.MaxLength != nil && len(str) > *schema.MaxLength {
		w.fail(path, "string length %d exceeds maximum %d", len(str), *schema.MaxLength)
	}

	if schema.Pattern != "" {
		matched, err := regexp.MatchString(schema.Pattern, str)
		switch {
		case err != nil:
			w.fail(path, "invalid pattern %q: %v", schema.Pattern, err)
		case !matched:
			w.fail(path, "string does not match pattern %q", schema.Pattern)
		}
	}

	if schema.Format != "" {
		if check, ok := w.formats[schema.Format]; ok && !check(str) {
			w.fail(path, "string does not match format %q", schema.Format)
		}
	}
}

func (w *schemaWalker) checkInteger(value any, schema *JSONSchema, path string) {
	num, ok := asNumber(value)
	if !ok {
		w.fail(path, "expected integer, got %T", value)
		return
	}
	if num != math.Trunc(num) {
		w.fail(path, "expected integer, got %v", num)
		return
	}
	w.checkBounds(num, schema, path)
}

func (w *schemaWalker) checkBounds(num float64, schema *JSONSchema, path string) {
	if schema.Minimum != nil && num < *schema.Minimum {
		w.fail(path, "value %v is less than minimum %v", num, *schema.Minimum)
	}
	if schema.Maximum != nil && num > *schema.Maximum {
		w.fail(path, "value %v exceeds maximum %v", num, *schema.Maximum)
	}
	if schema.ExclusiveMinimum != nil && num <= *schema.ExclusiveMinimum {
		w.fail(path, "value %v must be greater than %v", num, *schema.ExclusiveMinimum)
	}
	if schema.ExclusiveMaximum != nil && num >= *schema.ExclusiveMaximum {
		w.fail(path, "value %v must be less than %v", num, *schema.ExclusiveMaximum)
	}
}

func (w *schemaWalker) checkObject(value any, schema *JSONSchema, path string) {
	obj, ok := value.(map[string]any)
	if !ok {
		w.fail(path, "expected object, got %T", value)
		return
	}

	// 必填字段缺失或为 null 都算违规
	for _, name := range schema.Required {
		val, exists := obj[name]
		switch {
		case !exists:
			w.fail(joinPath(path, name), "required field is missing")
		case val == nil:
			w.fail(joinPath(path, name), "required field must not be null")
		}
	}

	for name, val := range obj {
		propPath := joinPath(path, name)
		if propSchema, ok := schema.Properties[name]; ok {
			w.check(val, propSchema, propPath)
			continue
		}
		ap := schema.AdditionalProperties
		switch {
		case ap == nil:
			// 未声明 additionalProperties 时额外字段放行
		case ap.Schema != nil:
			w.check(val, ap.Schema, propPath)
		case !ap.Allowed:
			w.fail(propPath, "additional property not allowed")
		}
	}
}

func (w *schemaWalker) checkArray(value any, schema *JSONSchema, path string) {
	arr, ok := value.([]any)
	if !ok {
		w.fail(path, "expected array, got %T", value)
		return
	}

	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		w.fail(path, "array has %d items, minimum is %d", len(arr), *schema.MinItems)
	}
	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		w.fail(path, "array has %d items, maximum is %d", len(arr), *schema.MaxItems)
	}

	if schema.UniqueItems != nil && *schema.UniqueItems {
		seen := make(map[string]bool, len(arr))
		for i, item := range arr {
			key, _ := json.Marshal(item)
			if seen[string(key)] {
				w.fail(fmt.Sprintf("%s[%d]", path, i), "duplicate item in array with uniqueItems constraint")
			}
			seen[string(key)] = true
		}
	}

	if schema.Items != nil {
		for i, item := range arr {
			w.check(item, schema.Items, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

// asNumber coerces the numeric shapes json decoding can produce.
func asNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func containsValue(set []any, value any) bool {
	for _, candidate := range set {
		if jsonEqual(value, candidate) {
			return true
		}
	}
	return false
}

// jsonEqual compares by JSON value semantics: 2 and 2.0 are equal, enum
// tables written with Go ints match decoded float64 payloads.
func jsonEqual(a, b any) bool {
	if aNum, ok := asNumber(a); ok {
		bNum, ok := asNumber(b)
		return ok && aNum == bNum
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	return string(aJSON) == string(bJSON)
}

func joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}
