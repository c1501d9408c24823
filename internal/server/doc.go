/*
包 server 提供 Prometheus 指标端点的 HTTP 服务器生命周期管理。

# 概述

Manager 封装 net/http.Server，在 Path（默认 /metrics）上暴露
promhttp 处理器，统一管理监听、服务、关闭与错误传播流程。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 阻塞运行：Run 启动后等待 ctx 结束再优雅关闭，适合放入 errgroup。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空与连接释放。
  - 错误传播：Errors() 返回异步错误通道。
  - 地址查询：ListenAddr 返回实际监听地址（支持 ":0"）。
*/
package server
