// Package dsl 解析 YAML 声明式作业文档，
// 校验并补全每个任务字段，将 train / infer / similarity 展开为隐式的
// file_convert 前置子任务，最终编译为按依赖顺序排列的 workflow.Plan。
package dsl
