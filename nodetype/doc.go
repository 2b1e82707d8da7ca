// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package nodetype 提供节点类型注册表与内置节点目录。

每个节点类型 (Definition) 声明参数契约 (ParamSpec)、输出分支 (OutputSpec)、
目标执行引擎模板 (Template) 以及能力标记 (Capabilities)。Registry 通过
NewRegistry 显式构造，构造后只读，可在并发请求间无锁共享。

内置目录以 YAML 形式嵌入 (catalog.yaml)，通过 Builtin 加载；也可使用
LoadCatalog 加载自定义目录文件。
*/
package nodetype
