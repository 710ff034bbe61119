// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 用 Prometheus 采集路由服务的运行指标。

Collector 通过 promauto 注册全部向量指标，无需手动管理 Registry；
nil Collector 上的记录方法直接返回，调用方不必判空。指标按
namespace 隔离，覆盖五个维度：

  - HTTP：请求总数、耗时、请求/响应体大小，按 method/path/status
    分组，状态码折叠为 2xx/3xx/4xx/5xx。
  - 补全调用：请求总数、耗时与 prompt/completion Token 用量，
    按 provider/model 分组。
  - 路由：分类结果计数（含 ambiguous）、handoff 状态转换计数、
    专家执行总数与耗时（resolved/redelegated/failed）、瞬态重试计数。
  - 缓存：命中与未命中计数，按 cache_type 分组。
  - 数据库：open/idle 连接数 Gauge 与查询耗时 Histogram。
*/
package metrics
