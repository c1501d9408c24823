// =============================================================================
// 📦 crewtel 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

const (
	// DefaultMonitoringServer 是 MONITORING_SERVER 未设置时的采集端
	DefaultMonitoringServer = "localhost"
	// DefaultExportTimeout 是导出请求的固定超时
	DefaultExportTimeout = 30 * time.Second
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Monitoring: DefaultMonitoringConfig(),
		Log:        DefaultLogConfig(),
	}
}

// DefaultMonitoringConfig 返回默认遥测配置
func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{
		Type:          MonitoringLocal,
		Server:        DefaultMonitoringServer,
		Protocol:      ProtocolHTTP,
		ExportTimeout: DefaultExportTimeout,
		ServiceName:   "crewtel",
		Metrics:       false,
		LogPath:       "stdout",
		LogLevel:      "info",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}
