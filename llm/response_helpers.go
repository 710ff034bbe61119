package llm

import "fmt"

// FirstChoice 返回响应的第一个 choice。
// 上游返回空 choices 的情况并不少见, 统一在这里兜底。
func FirstChoice(resp *ChatResponse) (ChatChoice, error) {
	switch {
	case resp == nil:
		return ChatChoice{}, fmt.Errorf("chat response is nil")
	case len(resp.Choices) == 0:
		return ChatChoice{}, fmt.Errorf("chat response has no choices")
	}
	return resp.Choices[0], nil
}

// FirstChoiceContent 返回第一个 choice 的助手文本。
func FirstChoiceContent(resp *ChatResponse) (string, error) {
	choice, err := FirstChoice(resp)
	if err != nil {
		return "", err
	}
	return choice.Message.Content, nil
}
