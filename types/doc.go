// Copyright (c) TripFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 TripFlow 服务的全局共享类型定义。

# 概述

types 是服务最底层的公共包，不依赖任何内部包，为 agent、llm、api 等
上层模块提供统一的类型契约。所有跨包共享的结构体、枚举和错误码均
定义于此，以避免循环依赖。

# 核心类型

  - ResponseType          — 响应类型枚举（flight / hotel / travel_plan）
  - FlightRecommendation  — 航班推荐结构化结果
  - HotelRecommendation   — 酒店推荐结构化结果
  - TravelPlan            — 行程规划结构化结果
  - StructuredResult      — 三种结果的带标签联合体
  - TravelResponse        — 统一响应信封（success / response_type / data / message）
  - Error / ErrorCode     — 结构化错误体系，含 HTTP 状态码、Retryable、Provider 标记

# 主要能力

  - Context 传播：WithRequestID / WithTenantID / WithUserID / WithRoles
  - 错误工具链：IsRetryable / GetErrorCode
  - 信封序列化：失败时 response_type 与 data 编码为 null，
    成功时 data 按结果类型展开为裸对象并支持往返解码
*/
package types
