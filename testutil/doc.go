// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 crewtel 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 异步断言: AssertEventuallyTrue
  - 数据工具: MustJSON / MustParseJSON

# 子包

  - testutil/mocks: MockTracer / MockSpan（统计 Start 与 End 调用）、
    MockPipeline（可注入注册错误）、RecordingSink（记录日志行）
  - testutil/fixtures: 预置团队（researcher / writer 两名成员，三项任务）
    与 LLM 配置样例

# 使用示例

	tracer := mocks.NewMockTracer()
	pipeline := mocks.NewMockPipeline(tracer)
	c := fixtures.SampleCrew(true)
*/
package testutil
