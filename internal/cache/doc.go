// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的响应缓存能力，支持连接池、健康检查与
JSON 序列化。

# 概述

本包封装 go-redis 客户端，为查询处理器提供响应信封缓存。
Manager 负责连接生命周期管理，包括初始化、健康检查与优雅关闭。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端与连接池配置，
    提供 Get/Set/Delete/Exists 等基础操作、GetJSON/SetJSON
    便捷序列化方法，以及面向查询的 GetEnvelope/SetEnvelope。
  - Config：缓存配置，包含地址、密码、连接池大小、默认 TTL
    与健康检查间隔等参数。

# 信封缓存语义

  - 缓存键是小写化、压缩空白后查询文本的 SHA-256 摘要，
    同一查询的大小写与空白变体命中同一条缓存。
  - 只缓存成功信封；失败可能由瞬态故障引起，写入会把错误
    粘住整个 TTL 周期。
  - 命中与未命中通过 metrics.Collector 计数，收集器可以为 nil。

# 主要能力

  - 键值读写：支持字符串与 JSON 两种模式的缓存存取。
  - 连接池管理：通过 PoolSize 与 MinIdleConns 控制连接复用。
  - 健康检查：后台定时 Ping 检测，异常时通过 zap 日志告警。
  - 优雅关闭：Close 方法安全释放底层 Redis 连接。
  - 错误语义：提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数。
*/
package cache
