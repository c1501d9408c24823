// Package tracing 封装 OpenTelemetry SDK 初始化逻辑，为 server 模式的遥测
// 提供 TracerProvider（以及可选的 MeterProvider）。导出协议支持 OTLP/HTTP、
// OTLP/gRPC 与 stdout。
package tracing
