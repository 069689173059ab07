// 版权所有 2024 topicflow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库打开与连接池管理，支持
SQLite（纯 Go 实现）、PostgreSQL 与 MySQL 三种驱动，以及
带重试的事务执行。

# 概述

运行历史默认写入本地 SQLite 文件；多台主机共享历史时可切换为
PostgreSQL 或 MySQL。Open 根据 config.HistoryConfig 选择 GORM
Dialector 并应用连接池配置，PoolManager 统一管理连接生命周期。

# 核心类型

  - PoolManager：连接池管理器，持有 GORM DB 实例与底层 sql.DB，
    提供 DB()、Ping()、Stats()、Close() 等生命周期方法。
  - PoolConfig：连接池配置。SQLite 只允许单连接写入。
  - TransactionFunc：事务函数，配合 WithTransaction /
    WithTransactionRetry 使用。

# 主要能力

  - 驱动选择：sqlite / postgres / mysql。
  - 事务重试：对死锁、序列化失败、SQLITE_BUSY 等可重试错误
    进行指数退避重试。
*/
package database
