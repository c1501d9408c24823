// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 telemetry 为团队编排提供可选的匿名遥测上报。

# 概述

EventReporter 是编排代码在生命周期节点调用的统一入口。构造时根据
MONITORING_TYPE 选择唯一的上报策略，并在整个生命周期内保持不变：

  - LocalLogStrategy：每个事件格式化为一行带时间戳与级别的日志，
    通过 logging.Sink 追加到控制台或文件。
  - RemoteTraceStrategy：每个事件打开一个 OpenTelemetry Span，写入
    描述事件的属性后关闭，经 OTLP 导出到 MONITORING_SERVER。

# 事件

团队创建、任务开始/结束、工具使用、工具重复使用、工具错误、团队执行
开始/结束。TaskStarted 与 CrewExecutionStarted 在 server 模式下返回
SpanHandle，调用方必须把它原样交回对应的结束方法。

# 隐私

LLM 配置只经由 SafeLLMAttributes 白名单（name、model_name、base_url、
model、top_k、temperature 与 class）进入任何载荷；团队执行的完整
名册仅在 Crew.ShareCrew 为 true 时上报。

# 失败语义

任何上报方法都不会 panic 或返回错误：格式化、序列化与导出失败均在
策略内部吞掉，只体现在 Metrics 计数与诊断日志中。
*/
package telemetry
