// 版权所有 2024 topicflow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的流水线指标采集能力，覆盖
运行、阶段、外部引擎调用与作业编译四个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离，支持多维度 label 分组。
Collector 实现 workflow.RunObserver 与 stages.EngineObserver，
由执行器和引擎包装器直接回调，业务代码无需感知 Prometheus。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - 运行指标：运行总数与运行耗时，按最终状态分组。
  - 阶段指标：阶段执行总数与耗时，按任务类型 kind / status 分组。
  - 引擎指标：MALLET 子命令调用次数与耗时，按 command / result 分组。
  - 编译指标：编译出的任务数与 advisory 数。
*/
package metrics
