// Copyright (c) TripFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 TripFlow HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 TripFlow 所有 HTTP 端点的请求处理逻辑，
包括旅行查询路由、Agent 列表、查询历史、健康检查以及统一的
响应/错误处理。所有 Handler 均遵循标准 net/http 接口。

# 核心类型

  - QueryHandler     — 旅行查询处理器：信封缓存 → 路由 → 历史落库
  - AgentsHandler    — 三个旅行专家的静态列表与根端点 API 信息
  - HistoryHandler   — 最近查询记录（/api/v1/history?limit=N）
  - HealthHandler    — 服务健康检查（/health, /healthz, /ready, /version）
  - Response         — 运维端点的统一 JSON 响应（success + data + error + timestamp）
  - ErrorInfo        — 结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter   — 包装 http.ResponseWriter 以捕获状态码与响应大小
  - HealthCheck      — 可插拔就绪检查接口（provider、redis、数据库）

# 信封语义

查询端点始终返回 types.TravelResponse 信封：

  - 解析成功 ⇒ success=true，message 为 "<类型标签> generated successfully"
  - 任何下游失败 ⇒ HTTP 200 + success=false，message 为按错误码固定的
    对外文案；内部诊断只进日志
  - 请求体损坏或查询为空 ⇒ HTTP 400 + 失败信封

# 主要能力

  - 统一响应格式：WriteSuccess / WriteError / WriteJSON 辅助函数
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）
  - ErrorCode → HTTP 状态码自动映射（4xx/5xx）
  - 信封缓存：成功信封按归一化查询键缓存，失败信封不缓存
  - 历史落库：尽力而为，脱离请求取消，失败不影响响应
  - 可扩展就绪检查：RegisterCheck 注册 HealthCheck 实现
*/
package handlers
