// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 guardrails 为旅行查询提供进入路由之前的输入防护能力。

# 概述

guardrails 在查询被分类、分派给专家 Agent 之前执行统一校验，
用于拦截无法处理或存在风险的输入：

- 空查询或仅含空白字符的查询
- 超过长度预算的查询
- 业务侧配置的屏蔽关键词
- 提示词注入与越权指令

被拦截的查询不会触发任何分类或模型调用，调用方直接返回失败信封。

# 核心接口

  - [Validator]：单项校验器接口，提供 Validate / Name / Priority

# 核心模型

本包围绕 Validator 与 Chain 展开：

- [Chain]：多校验器编排器，统一执行顺序与结果汇总，自身也实现 Validator

链路执行支持三种模式：

- [ChainModeFailFast]：遇到首个错误立即返回，延迟更低
- [ChainModeCollectAll]：执行全部校验并汇总错误，诊断更全面
- [ChainModeParallel]：并行执行所有校验器并收集结果

# 结果与错误

  - [Result]：校验结果，包含有效性、Tripwire 标记、错误列表、
    警告列表与附加元数据
  - [ValidationError]：结构化校验错误，包含错误码、消息与严重级别
  - [TripwireError]：Tripwire 触发错误，表示应立即中断整个处理流程，
    用 [IsTripwire] 判定
  - 错误码常量：ErrCodeEmptyQuery / ErrCodeMaxLengthExceeded /
    ErrCodeBlockedKeyword / ErrCodeInjectionDetected 等
  - 严重级别：SeverityCritical / SeverityHigh / SeverityMedium / SeverityLow

# 内置校验器

- [NonEmptyValidator]：拦截空查询与纯空白查询
- [LengthValidator]：按字符数（rune）限制查询长度，中文按单字计数
- [KeywordValidator]：检测业务侧配置的屏蔽关键词
- [InjectionDetector]：识别常见 Prompt Injection 模式，支持中英文，
  命中 critical 级模式时触发 Tripwire

# 标准输入链

[NewInputChain] 按固定顺序组装上述校验器（非空 → 长度 → 屏蔽词 →
注入检测），是路由层的标准用法：

	chain := guardrails.NewInputChain(nil)
	result, err := chain.Validate(ctx, query)
	if guardrails.IsTripwire(err) || !result.Valid {
	    // 拒绝查询
	}

# 扩展方式

你可以通过实现 Validator 接口接入自定义规则，例如组织内部敏感词
校验或多租户隔离策略校验，并用 Chain.Add 挂入链路。
*/
package guardrails
