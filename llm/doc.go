// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供统一的补全模型接入层，屏蔽不同模型服务商在接口、
鉴权与错误语义上的差异，对上层专家 Agent 暴露一致的请求与响应模型。

# 概述

旅行查询路由的每个专家 Agent 都通过本包的 [Provider] 接口发起补全调用，
不直接依赖任何具体服务商 SDK。生产实现见 llm/openaicompat，
它以 OpenAI 兼容的 chat-completions 协议对接 OpenRouter、DeepSeek、
Ollama、vLLM 等任意兼容后端。

# 核心类型

  - [Provider]：补全接口，提供 Completion / HealthCheck / Name
  - [ChatRequest] / [ChatResponse]：聊天请求与响应
  - [Message] / [Role]：消息与角色
  - [ChatUsage]：Token 用量统计
  - [HealthStatus]：健康检查状态

# 错误语义

所有上游错误统一映射为 types.Error，HTTP 429/5xx 标记为可重试，
4xx（限流除外）标记为不可重试。上层重试策略据此决定是否重发。

# 相关子包

- llm/openaicompat：OpenAI 兼容协议适配实现。
- llm/tokenizer：Token 计数与预算估算。
*/
package llm
