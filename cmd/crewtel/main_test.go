package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MONITORING_TYPE", "MONITORING_SERVER", "MONITORING_PROTOCOL", "MONITORING_EXPORT_TIMEOUT",
		"MONITORING_SERVICE_NAME", "MONITORING_METRICS", "MONITORING_LOG_PATH", "MONITORING_LOG_LEVEL",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT_PATHS",
	} {
		t.Setenv(key, "")
	}
}

// writeConfig writes a local-mode config logging into dir.
func writeConfig(t *testing.T, dir string) (cfgPath, telemetryLog string) {
	t.Helper()
	telemetryLog = filepath.Join(dir, "telemetry.log")
	cfgPath = filepath.Join(dir, "crewtel.yaml")
	content := fmt.Sprintf(`monitoring:
  type: local
  log_path: %s
  log_level: info
log:
  level: error
  output_paths: [%s]
`, telemetryLog, filepath.Join(dir, "app.log"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, telemetryLog
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "crewtel dev")
	assert.Contains(t, out, "Git Commit: unknown")
}

func TestValidateCmd(t *testing.T) {
	clearEnv(t)
	cfgPath, _ := writeConfig(t, t.TempDir())

	out, err := execute(t, "validate", "--config", cfgPath, "--crew", "testdata/crew.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "config OK: mode=local server=localhost protocol=http")
	assert.Contains(t, out, "crew OK: name=report process=sequential agents=2 tasks=3 share_crew=false")
}

func TestValidateCmd_InvalidMonitoringType(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONITORING_TYPE", "carrier-pigeon")

	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid monitoring type")
}

func TestValidateCmd_MissingCrew(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "validate", "--crew", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEmitCmd_Local(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfgPath, telemetryLog := writeConfig(t, dir)

	out, err := execute(t, "emit", "--config", cfgPath, "--crew", "testdata/crew.yaml", "-i", "topic=go")
	require.NoError(t, err)
	assert.Contains(t, out, "writer: write the report")

	data, err := os.ReadFile(telemetryLog)
	require.NoError(t, err)
	log := string(data)

	assert.Contains(t, log, "LocalLogStrategy initialized.")
	assert.Contains(t, log, "Agents=2")
	assert.Contains(t, log, "Tasks=3")
	assert.Contains(t, log, "Description=research go")
	assert.Contains(t, log, "Tool usage: echo by LLM LLM(gpt-4o)")
	assert.Contains(t, log, "[ERROR]: Tool usage error by LLM: none")
	assert.Contains(t, log, "Crew execution started")
	assert.Contains(t, log, "Crew execution ended")
	assert.NotContains(t, log, "sk-do-not-ship")
}

func TestEmitCmd_WithMetricsServer(t *testing.T) {
	clearEnv(t)
	cfgPath, _ := writeConfig(t, t.TempDir())

	out, err := execute(t, "emit", "--config", cfgPath, "--crew", "testdata/crew.yaml",
		"--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "writer: write the report")
}

func TestEmitCmd_RequiresCrew(t *testing.T) {
	clearEnv(t)
	_, err := execute(t, "emit")
	assert.Error(t, err)
}
