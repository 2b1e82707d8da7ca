// Package config 提供 botflow 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量 的优先级加载，
// 环境变量名由前缀与结构体 env 标签逐级拼接而成，例如
// BOTFLOW_COMPILER_LAYOUT_SPACING_X。
package config
