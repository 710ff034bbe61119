// 版权所有 2026 TripFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 migration 管理查询历史库的 Schema 版本，基于 golang-migrate，
支持 PostgreSQL、MySQL 与 SQLite 三种方言。

各方言的 query_records 建表 SQL 通过 embed.FS 内嵌在二进制里，
部署时不依赖外部迁移目录。MongoDB 后端无需 SQL 迁移，集合由
历史存储按需创建，工厂函数会直接拒绝 mongo 驱动。

# 组成

  - Migrator / DefaultMigrator：Up、Down、DownAll、Goto、Force、
    Version、Status、Info、Close 的操作集与默认实现。
  - Config 与 DatabaseType：迁移配置与方言枚举，ParseDatabaseType
    接受常见别名（postgresql、pg、mariadb、sqlite3）。
  - BuildDatabaseURL：按方言拼接 golang-migrate 认的连接 URL。
  - 工厂函数：NewMigratorFromConfig / NewMigratorFromDatabaseConfig /
    NewMigratorFromURL，分别服务于应用配置、库配置与显式 URL 三种入口。
  - CLI：RunUp/RunDown/RunDownAll/RunStatus/RunVersion/RunGoto/RunForce
    的终端格式化输出层，migrate 子命令直接复用。
*/
package migration
