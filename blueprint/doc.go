// Copyright (c) BotFlow Authors.
// Licensed under the MIT License.

/*
Package blueprint 定义可移植、与执行引擎无关的工作流描述（Blueprint）。

# 概述

Blueprint 由模板实例化或 AI 生成产生，描述节点（BlueprintNode）与连线
（BlueprintEdge）。它是用户可编辑的输入格式，不保证结构正确；所有校验
都在 compiler 包中完成，AI 生成与手写的 Blueprint 一视同仁。

# 核心类型

  - Blueprint: 顶层描述（owner、version、name、nodes、edges）
  - Node: 节点（id、type、config、可选画布位置）
  - Edge: 连线（source、target、可选 source_handle 分支）
  - Position: 画布坐标

# 序列化

FromJSON / FromYAML / LoadFile 解析输入，ToJSON / ToYAML 导出。
解析只做语法层面的工作，不做结构校验。
*/
package blueprint
