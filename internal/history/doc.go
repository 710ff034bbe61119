// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 history 提供查询历史的持久化存储，记录每次旅行查询的
处理结果，支持关系型数据库与 MongoDB 两类后端。

# 概述

每次查询处理完成后（无论成功或失败），API 层将结果摘要写入
QueryRecord 并通过 Store 落库。历史记录用于查询审计与
/api/v1/history 接口的最近记录展示。

# 核心类型

  - Store：存储接口，提供 Save、Recent、Ping、Close 四个操作。
  - QueryRecord：落库模型，包含查询原文、处理结果类型、
    结构化结果 JSON、错误码、执行专家与耗时。
  - GormStore：基于 GORM 与 database.PoolManager 的实现，
    支持 sqlite/postgres/mysql，写入走事务重试。
  - MongoStore：基于官方 mongo-driver 的实现。

# 存储语义

  - Save 自动填充空 ID（UUID）与零值 CreatedAt（UTC）。
  - Recent 按 created_at 倒序返回，limit<=0 取默认 20 条，
    上限 100 条。
  - 读写耗时通过 metrics.Collector 按 database/operation 上报。
*/
package history
