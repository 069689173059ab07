// 版权所有 2024 topicflow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 history 将每次流水线运行的 ExecutionHistory 持久化到数据库，
便于事后查询某次运行的任务状态、耗时与失败原因。

# 数据模型

  - RunRecord：一次运行（run_id、计划指纹、工作区、状态、耗时、
    最终状态机状态、错误信息）。
  - TaskRecord：运行中的单个任务（序号、类型、空间名、状态、耗时、
    错误信息），通过 run_id 关联 RunRecord。

# 使用方式

Store 建立在 internal/database 之上，打开时自动迁移表结构；
Save 在带重试的事务内写入一次运行及其全部任务，List 与 Get
用于查询。
*/
package history
