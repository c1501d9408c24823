// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearMonitoringEnv 屏蔽宿主环境里可能存在的遥测变量
func clearMonitoringEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MONITORING_TYPE", "MONITORING_SERVER", "MONITORING_PROTOCOL",
		"MONITORING_EXPORT_TIMEOUT", "MONITORING_SERVICE_NAME", "MONITORING_METRICS",
		"MONITORING_LOG_PATH", "MONITORING_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	clearMonitoringEnv(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, MonitoringLocal, cfg.Monitoring.Type)
	assert.Equal(t, "localhost", cfg.Monitoring.Server)
	assert.Equal(t, 30*time.Second, cfg.Monitoring.ExportTimeout)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	clearMonitoringEnv(t)
	configPath := filepath.Join(t.TempDir(), "crewtel.yaml")

	yamlContent := `
monitoring:
  type: server
  server: "https://collector.example.com:4318"
  protocol: grpc
  export_timeout: 10s
  metrics: true

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, MonitoringServer, cfg.Monitoring.Type)
	assert.Equal(t, "https://collector.example.com:4318", cfg.Monitoring.Server)
	assert.Equal(t, ProtocolGRPC, cfg.Monitoring.Protocol)
	assert.Equal(t, 10*time.Second, cfg.Monitoring.ExportTimeout)
	assert.True(t, cfg.Monitoring.Metrics)
	// 未在 YAML 中出现的字段保留默认值
	assert.Equal(t, "crewtel", cfg.Monitoring.ServiceName)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	clearMonitoringEnv(t)
	t.Setenv("MONITORING_TYPE", "server")
	t.Setenv("MONITORING_SERVER", "http://otel:4318")
	t.Setenv("MONITORING_EXPORT_TIMEOUT", "5s")
	t.Setenv("MONITORING_METRICS", "true")
	t.Setenv("LOG_OUTPUT_PATHS", "stdout, /tmp/crewtel.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, MonitoringServer, cfg.Monitoring.Type)
	assert.Equal(t, "http://otel:4318", cfg.Monitoring.Server)
	assert.Equal(t, 5*time.Second, cfg.Monitoring.ExportTimeout)
	assert.True(t, cfg.Monitoring.Metrics)
	assert.Equal(t, []string{"stdout", "/tmp/crewtel.log"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	clearMonitoringEnv(t)
	configPath := filepath.Join(t.TempDir(), "crewtel.yaml")

	yamlContent := `
monitoring:
  type: server
  server: yaml-collector
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("MONITORING_SERVER", "env-collector")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "env-collector", cfg.Monitoring.Server)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, MonitoringServer, cfg.Monitoring.Type)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	clearMonitoringEnv(t)
	t.Setenv("MYAPP_MONITORING_SERVER", "prefixed")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.Monitoring.Server)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	clearMonitoringEnv(t)
	t.Setenv("MONITORING_EXPORT_TIMEOUT", "soon")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	clearMonitoringEnv(t)
	t.Setenv("MONITORING_TYPE", "carrier-pigeon")

	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMonitoringType)
}

func TestLoader_NonExistentFile(t *testing.T) {
	clearMonitoringEnv(t)

	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/crewtel.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, MonitoringLocal, cfg.Monitoring.Type)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	invalidYAML := `
monitoring:
  type: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "empty type means local", modify: func(c *Config) { c.Monitoring.Type = "" }},
		{name: "upper case server", modify: func(c *Config) { c.Monitoring.Type = "SERVER" }},
		{name: "unknown type", modify: func(c *Config) { c.Monitoring.Type = "cloud" }, wantErr: true},
		{name: "unknown protocol", modify: func(c *Config) { c.Monitoring.Protocol = "udp" }, wantErr: true},
		{name: "zero export timeout", modify: func(c *Config) { c.Monitoring.ExportTimeout = 0 }, wantErr: true},
		{name: "bad monitoring log level", modify: func(c *Config) { c.Monitoring.LogLevel = "loud" }, wantErr: true},
		{name: "bad log level", modify: func(c *Config) { c.Log.Level = "trace" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	clearMonitoringEnv(t)
	configPath := filepath.Join(t.TempDir(), "crewtel.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("monitoring:\n  type: local\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, MonitoringLocal, cfg.Monitoring.Type)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	clearMonitoringEnv(t)
	t.Setenv("MONITORING_SERVICE_NAME", "env-only")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.Monitoring.ServiceName)
}
