// Package config 提供 topicflow 的应用配置管理。
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量（TOPICFLOW_ 前缀）。
// 作业文档（tasks 列表）不在此包中解析，见 workflow/dsl。
package config
