/*
Package testutil 提供 botflow 测试共用的辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout，自动注册 Cleanup
  - 校验断言: AssertErrorCodes / AssertWarningCodes 按错误码比较校验结果
  - 异步断言: AssertEventuallyTrue
  - 数据工具: MustJSON / WriteBlueprint

# 子包

  - testutil/fixtures: 测试注册表与蓝图工厂（TriggerReply、Triangle、
    Chain、SupportBot 等）
*/
package testutil
