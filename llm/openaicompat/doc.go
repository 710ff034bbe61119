// Package openaicompat implements the llm.Provider interface against any
// backend speaking the OpenAI Chat Completions wire format.
//
// OpenRouter, DeepSeek, Ollama, vLLM and OpenAI itself all share this API
// shape, so a single implementation covers every backend the router is
// deployed against. What differs between deployments is configuration only:
//
//   - Provider name and default model
//   - Base URL and API key
//   - Custom headers (if any)
//
// Usage:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: "openrouter",
//	    APIKey:       cfg.APIKey,
//	    BaseURL:      "https://openrouter.ai/api/v1",
//	    DefaultModel: "deepseek/deepseek-chat-v3-0324:free",
//	}, logger)
package openaicompat
