// 版权所有 2024 topicflow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理流水线运行期间的 HTTP 端点生命周期，用于向
Prometheus 暴露 /metrics。

# 概述

topicflow 是批处理程序，指标端点只在一次运行期间存在：运行开始前
Start，运行结束后 Shutdown。Manager 封装 net/http.Server，统一管理
监听、服务、关闭与错误传播流程。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道，提供 Start/Shutdown/Errors 等生命周期方法。
  - Config：服务器配置，包含监听地址、读写超时与优雅关闭超时。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空与连接释放。
  - 指标端点：NewMetricsHandler 组装 /metrics 与 /healthz 路由。
*/
package server
