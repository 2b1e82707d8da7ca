// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的编译结果缓存。

# 概述

Manager 封装 go-redis 客户端，按 SHA-256(规范 JSON 蓝图 + 编译选项 +
节点类型注册表指纹) 计算缓存键，只缓存编译成功的结果。注册表变化会
改变指纹，旧条目自然失效。

# 主要能力

  - 缓存键：Key 对同一内容的蓝图总是返回相同的键。
  - 读写：Get 返回 ErrCacheMiss 哨兵错误，Put 跳过失败结果。
  - 指标：通过 Recorder 上报命中与未命中，metrics.Collector 实现该接口。
  - 健康检查：WithHealthCheck 启动后台定时 Ping，Close 时停止。
*/
package cache
