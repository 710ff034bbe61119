/*
包 tlsutil 集中存放进程内所有 TLS 相关的基线设置。

DefaultTLSConfig 统一强制 TLS 1.2 起步并只保留 AEAD 密码套件，
API 服务端的 HTTPS 监听与访问补全后端的 HTTP 客户端共用同一份
配置，避免各处散落的 tls.Config 漂移出不一致的安全级别。
SecureTransport 与 SecureHTTPClient 在此基础上给出带合理超时与
连接池参数的 http 封装。
*/
package tlsutil
