/*
包 telemetry 负责 OpenTelemetry SDK 的装配：OTLP gRPC 的 trace 与
metric 导出器、按比例采样器以及 W3C TraceContext/Baggage 传播。

Init 读取 config.TelemetryConfig 完成全部接线并注册全局 Provider，
路由各处通过 otel.Tracer 取用即可，无须感知导出细节。遥测关闭时
Init 返回空的 Providers，全局 Provider 保持 noop，进程不会产生
任何外联流量。

Providers.Shutdown 在停机时冲刷缓存中的 span 与指标，对 nil 接收者
与未初始化字段都安全，可直接 defer。
*/
package telemetry
