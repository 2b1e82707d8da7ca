// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
优雅关闭与基于 context 的停机等待。

# 核心类型

  - Manager：封装 net/http.Server 与 net.Listener，提供
    Start/Shutdown/Wait 生命周期方法。botflow serve 为 API
    与 metrics 各创建一个 Manager。
  - Config：监听地址、读写超时、空闲超时、最大请求头大小与
    优雅关闭超时，可由 FromServerConfig 从应用配置生成。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空，重复调用无副作用。
  - 停机等待：Wait 在 ctx 取消（如 signal.NotifyContext）或服务异常
    退出时触发关闭。
*/
package server
