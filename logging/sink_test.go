package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var linePattern = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]\[([A-Z]+)\]: (.*)$`)

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestZapSink_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSinkWithWriter(zapcore.AddSync(&buf), zapcore.DebugLevel)

	sink.Log(LevelInfo, "Crew created: ID=1")
	sink.Log(LevelWarning, "Repeated usage of tool: search")
	sink.Log(LevelError, "Tool usage error")
	sink.Log(LevelDebug, "details")
	require.NoError(t, sink.Close())

	lines := splitLines(buf.String())
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "][INFO]: Crew created: ID=1")
	assert.NotContains(t, buf.String(), "] [")

	want := []struct{ level, msg string }{
		{"INFO", "Crew created: ID=1"},
		{"WARNING", "Repeated usage of tool: search"},
		{"ERROR", "Tool usage error"},
		{"DEBUG", "details"},
	}
	for i, line := range lines {
		m := linePattern.FindStringSubmatch(line)
		require.NotNil(t, m, "line %q", line)
		_, err := time.ParseInLocation(TimeLayout, m[1], time.Local)
		assert.NoError(t, err)
		assert.Equal(t, want[i].level, m[2])
		assert.Equal(t, want[i].msg, m[3])
	}
}

func TestZapSink_Threshold(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSinkWithWriter(zapcore.AddSync(&buf), zapcore.InfoLevel)

	sink.Log(LevelDebug, "hidden")
	sink.Log(LevelInfo, "shown")
	sink.Log(Level("custom"), "unknown levels are info")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO]: shown")
	assert.Contains(t, out, "[INFO]: unknown levels are info")
}

func TestNewSink_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.log")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	sink, err := NewSink(path, zapcore.InfoLevel)
	require.NoError(t, err)
	sink.Log(LevelInfo, "first")
	sink.Log(LevelError, "second")
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 3)
	assert.Equal(t, "existing", lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "[INFO]: first"))
	assert.True(t, strings.HasSuffix(lines[2], "[ERROR]: second"))
}

func TestNewSink_BadPath(t *testing.T) {
	_, err := NewSink(filepath.Join(t.TempDir(), "missing", "dir", "x.log"), zapcore.InfoLevel)
	assert.Error(t, err)
}
