// Copyright (c) topicflow Authors.
// Licensed under the MIT License.

/*
Package main 提供 topicflow 命令行入口。

# 概述

cmd/topicflow 读取运行配置与 YAML 作业文件，把作业编译为扁平的
任务计划，然后在一次性工作区内依次执行 MALLET 转换、训练、推断
与相似度计算阶段。

# 子命令

  - run      编译并执行作业
  - plan     只编译作业，以 JSON 打印任务计划（不调用 MALLET）
  - history  查看已持久化的运行历史
  - version  打印版本信息

# 退出码

  - 0 成功
  - 1 用法或运行配置错误
  - 2 作业文件配置错误
  - 3 资源错误（工作区创建或清理失败）
  - 4 阶段失败
*/
package main
