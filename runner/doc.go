/*
Package runner 按团队的处理方式执行任务，并在每个生命周期节点上报遥测事件。

# 概述

Runner 是编排侧调用 telemetry.EventReporter 的唯一位置：

  - NewRunner 校验团队并上报 CrewCreated
  - Kickoff 上报 CrewExecutionStarted，逐个执行任务（TaskStarted → Executor → TaskEnded），
    最后上报 CrewExecutionEnded
  - span 句柄只保存在 Kickoff / runTask 的局部变量中，通过 defer 在所有路径上关闭

连续的 AsyncExecution 任务通过 errgroup 并发执行，遇到同步任务时先等待它们完成。

# 工具调用

ToolTracker 包装任务可用的工具，按 (工具名, 参数) 判断重复调用，
分别上报 ToolUsed / ToolRepeated / ToolError。
*/
package runner
