package structured

import (
	"fmt"
	"regexp"
	"strings"
)

// fencedJSONRe 匹配 markdown 代码块 ```json ... ``` 或 ``` ... ```
var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractJSON 从可能包含围栏或其他文字的模型响应中提取 JSON 文本.
// 依次尝试 markdown 代码块、对象边界、数组边界; 都不命中时原样返回。
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	// 尝试从 markdown 代码块提取
	if strings.Contains(response, "```") {
		matches := fencedJSONRe.FindStringSubmatch(response)
		if len(matches) > 1 {
			return strings.TrimSpace(matches[1])
		}
	}

	// 尝试找到 JSON 对象边界
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}

	// 尝试找到 JSON 数组边界
	start = strings.Index(response, "[")
	end = strings.LastIndex(response, "]")
	if start >= 0 && end > start {
		return response[start : end+1]
	}

	return response
}

// SchemaInstructions 为结构化输出生成系统提示词片段.
// 专家代理将其拼接在各自的角色指令之后, 引导模型只输出符合 Schema 的 JSON。
func SchemaInstructions(schema *JSONSchema) (string, error) {
	if schema == nil {
		return "", fmt.Errorf("schema cannot be nil")
	}

	schemaJSON, err := schema.ToJSONIndent()
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. You MUST respond with valid JSON that conforms to the schema below.\n")
	sb.WriteString("2. Do NOT include any text before or after the JSON.\n")
	sb.WriteString("3. Do NOT wrap the JSON in markdown code blocks.\n")
	sb.WriteString("4. Ensure all required fields are present and have valid values.\n")
	sb.WriteString("5. Follow all constraints specified in the schema (min/max, patterns, etc.).\n\n")
	sb.WriteString("JSON Schema:\n")
	sb.WriteString("```json\n")
	sb.Write(schemaJSON)
	sb.WriteString("\n```\n\n")
	sb.WriteString("Respond with ONLY the JSON object.")

	return sb.String(), nil
}
