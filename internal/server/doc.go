// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 HTTP/HTTPS 监听的完整生命周期：绑定、后台服务、
异步错误上报与优雅停机。

# 设计

Manager 把 net/http.Server 与 net.Listener 收拢到一个对象里。
Start/StartTLS 绑定端口后在后台 goroutine 中服务，主线程立即返回；
服务异常通过 Errors() 通道向外冒泡。Shutdown 在 Config.ShutdownTimeout
预算内排空在途请求，重复调用是 no-op。WaitForShutdown 同时监听
SIGINT/SIGTERM 与错误通道，任一触发即进入停机流程，适合作为
serve 命令的收尾阻塞点。

TLS 模式套用 tlsutil 的加固配置（TLS 1.2 起步，仅 AEAD 密码套件），
证书与密钥由 StartTLS 的调用方提供。

# 配置

Config 暴露监听地址、读写/空闲超时、最大请求头大小与停机超时，
DefaultConfig 给出适合生产的缺省值（:8080、30s 读写、120s 空闲）。
*/
package server
