package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimeLayout is the timestamp layout of every sink line.
const TimeLayout = "2006-01-02 15:04:05"

// Level is the severity attached to a sink line.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Sink consumes (level, message) pairs.
type Sink interface {
	Log(level Level, message string)
}

// ZapSink writes one newline-terminated line per call:
//
//	[2006-01-02 15:04:05][INFO]: message
//
// Lines below the threshold are discarded by zap.
type ZapSink struct {
	logger  *zap.Logger
	cleanup func()
}

// NewSink opens path ("stdout", "stderr" or a file, appended to) and
// returns a sink filtering below threshold.
func NewSink(path string, threshold zapcore.Level) (*ZapSink, error) {
	if path == "" {
		path = "stdout"
	}
	ws, cleanup, err := zap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry log %q: %w", path, err)
	}
	s := NewSinkWithWriter(ws, threshold)
	s.cleanup = cleanup
	return s, nil
}

// NewSinkWithWriter builds a sink on an existing writer.
func NewSinkWithWriter(ws zapcore.WriteSyncer, threshold zapcore.Level, opts ...zap.Option) *ZapSink {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(lineEncoderConfig()), ws, threshold)
	return &ZapSink{logger: zap.New(core, opts...)}
}

// Log implements Sink. Unknown levels are written at info.
func (s *ZapSink) Log(level Level, message string) {
	switch level {
	case LevelDebug:
		s.logger.Debug(message)
	case LevelWarning:
		s.logger.Warn(message)
	case LevelError:
		s.logger.Error(message)
	default:
		s.logger.Info(message)
	}
}

// Close flushes buffered lines and releases the destination.
func (s *ZapSink) Close() error {
	err := s.logger.Sync()
	if s.cleanup != nil {
		s.cleanup()
	}
	return err
}

func lineEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: "",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + t.Format(TimeLayout) + "]")
		},
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + levelName(l) + "]: ")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func levelName(l zapcore.Level) string {
	if l == zapcore.WarnLevel {
		return "WARNING"
	}
	return l.CapitalString()
}
