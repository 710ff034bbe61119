// Copyright (c) TripFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 TripFlow 服务端程序入口。

# 概述

cmd/tripflow 是旅行查询路由服务的可执行入口，提供 HTTP API 服务、
数据库迁移、健康检查和版本查询等子命令。程序支持 .env 引导、YAML
配置文件加载、结构化日志（zap）、Prometheus 指标采集与 OpenTelemetry
链路追踪。

# 核心类型

  - Server           — 主服务器，管理 HTTP、Metrics 双端口及优雅关闭
  - Middleware        — HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、migrate（数据库迁移）、version、health
  - 查询管线：tripflow.New 组装 Provider → 专家 Agent → 防护链 → 路由器
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    OTelTracing、MetricsMiddleware、CORS、限流（IP 或租户）、
    APIKeyAuth（X-API-Key / query 参数）、JWTAuth（HS256/RS256）
  - 可选依赖：Redis 信封缓存、查询历史存储（sqlite/postgres/mysql/mongo），
    不可用时自动降级并记录告警
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 停止限流清理 → 关闭 HTTP → 关闭 Metrics →
    关闭存储/缓存 → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
