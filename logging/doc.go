// Package logging 提供基于 zap 的日志构建：应用结构化日志，以及遥测
// local 模式使用的逐行追加 Sink。
package logging
