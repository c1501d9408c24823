// Package config 提供 crewtel 的配置管理功能。
//
// 配置来源依次为默认值、YAML 文件和环境变量。遥测模式由
// MONITORING_TYPE（local 或 server）决定，server 模式下的采集端
// 由 MONITORING_SERVER 指定。
package config
