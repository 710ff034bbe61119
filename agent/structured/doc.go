// Copyright 2026 TripFlow Authors
// Use of this source code is governed by the project license.

/*
# 概述

包 structured 提供旅行结果的 Schema 建模、生成与校验能力。

该包用于约束补全模型的输出格式，降低自由文本导致的解析失败风险。
三种旅行结果（航班推荐、酒店推荐、行程规划）各自对应一份 JSON Schema，
由 Registry 统一持有并负责校验与解码。

# 核心接口

  - SchemaValidator — 对 JSON 数据按 JSONSchema 进行字段级校验

# 主要类型

  - JSONSchema — JSON Schema 定义，支持 object/array/enum 及常用约束
  - Registry — 响应类型到 Schema 的注册表，校验通过后解码为强类型结果
  - SchemaGenerator — 通过反射从 Go 类型生成 JSONSchema，支持 jsonschema 标签
  - DefaultValidator — 内置格式校验（email/uri/uuid/datetime 等）
  - ParseError / ValidationErrors — 字段级校验结果

# 典型用法

	reg := structured.NewRegistry()
	result, err := reg.Validate(types.ResponseTypeHotel, payload)
	if err != nil { // 校验失败，err 为 *ValidationErrors }

	// 提示词中内嵌 Schema 约束
	schema, _ := reg.Schema(types.ResponseTypeFlight)
	instr, _ := structured.SchemaInstructions(schema)

# 校验语义

校验是全有或全无的：任一字段缺失、类型不符或越界，整条结果判为无效，
不保留部分字段。同一载荷重复校验结果一致。
*/
package structured
