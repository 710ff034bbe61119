// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 是查询历史存储的底层连接层：在 GORM 之下管理
database/sql 连接池，并提供带重试的事务封装。

PoolManager 统一设置 MaxIdleConns/MaxOpenConns/ConnMaxLifetime/
ConnMaxIdleTime 四个池参数，按 HealthCheckInterval 周期性探活；
探活成功时把 open/idle 连接数按 Database 标签上报给
metrics.Collector，失败走 zap 错误日志。

事务入口有两个：WithTransaction 执行单次事务，WithTransactionRetry
在死锁、序列化失败（SQLSTATE 40001）、锁超时与连接级故障时按
指数退避重试，其余错误立即返回。GetStats 暴露结构化的池运行
指标，供就绪检查与诊断端点使用。
*/
package database
