package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/crewtel/config"
	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/logging"
)

// =============================================================================
// 📡 EventReporter
// =============================================================================

// EventReporter is the single entry point used by orchestration code. It
// holds exactly one Strategy chosen at construction and forwards every call
// to it. No method panics or returns an error; a nil *EventReporter is a
// valid reporter that records nothing.
type EventReporter struct {
	strategy Strategy
	mode     config.MonitoringType
	logger   *zap.Logger
}

// New builds the reporter for cfg. It fails only for an unrecognized
// monitoring type, an unopenable local log destination, or a cancelled ctx
// during server-mode construction. An unreachable collector is not an error.
func New(ctx context.Context, cfg config.MonitoringConfig, opts ...Option) (*EventReporter, error) {
	mode, err := config.ParseMonitoringType(string(cfg.Type))
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	logger := o.logger.With(zap.String("component", "telemetry"))

	var strategy Strategy
	switch mode {
	case config.MonitoringServer:
		remote, err := NewRemoteTraceStrategy(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		strategy = remote
	default:
		local, err := newLocalFromConfig(cfg, o, opts)
		if err != nil {
			return nil, err
		}
		strategy = local
	}

	logger.Debug("telemetry reporter created",
		zap.String("mode", string(mode)),
		zap.String("strategy", strategy.Name()),
	)
	return &EventReporter{strategy: strategy, mode: mode, logger: logger}, nil
}

// FromEnv builds the reporter from MONITORING_* environment variables.
func FromEnv(ctx context.Context, opts ...Option) (*EventReporter, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg.Monitoring, opts...)
}

// NewWithStrategy wraps an existing strategy.
func NewWithStrategy(strategy Strategy, opts ...Option) *EventReporter {
	o := buildOptions(opts)
	mode := config.MonitoringLocal
	if _, ok := strategy.(*RemoteTraceStrategy); ok {
		mode = config.MonitoringServer
	}
	return &EventReporter{
		strategy: strategy,
		mode:     mode,
		logger:   o.logger.With(zap.String("component", "telemetry")),
	}
}

func newLocalFromConfig(cfg config.MonitoringConfig, o options, opts []Option) (*LocalLogStrategy, error) {
	if o.sink != nil {
		return NewLocalLogStrategy(o.sink, opts...), nil
	}
	sink, err := logging.NewSink(cfg.LogPath, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, err
	}
	s := NewLocalLogStrategy(sink, opts...)
	s.owned = true
	return s, nil
}

// Mode returns the monitoring mode the reporter was built for.
func (r *EventReporter) Mode() config.MonitoringType {
	if r == nil {
		return ""
	}
	return r.mode
}

// Strategy returns the active strategy.
func (r *EventReporter) Strategy() Strategy {
	if r == nil {
		return nil
	}
	return r.strategy
}

// Initialize forwards to the strategy.
func (r *EventReporter) Initialize() {
	r.dispatch("initialize", func(s Strategy) { s.Initialize() })
}

// CrewCreated reports a newly assembled crew.
func (r *EventReporter) CrewCreated(c *crew.Crew) {
	r.dispatch(EventCrewCreated, func(s Strategy) { s.CrewCreated(c) })
}

// TaskStarted reports a task start and returns the handle for TaskEnded,
// which may be nil.
func (r *EventReporter) TaskStarted(t *crew.Task) (h *SpanHandle) {
	r.dispatch(EventTaskStarted, func(s Strategy) { h = s.TaskStarted(t) })
	return h
}

// TaskEnded closes the handle returned by TaskStarted.
func (r *EventReporter) TaskEnded(h *SpanHandle, t *crew.Task) {
	r.dispatch(EventTaskEnded, func(s Strategy) { s.TaskEnded(h, t) })
}

// ToolUsed reports a successful tool invocation.
func (r *EventReporter) ToolUsed(llm any, toolName string, attempts int) {
	r.dispatch(EventToolUsed, func(s Strategy) { s.ToolUsed(llm, toolName, attempts) })
}

// ToolRepeated reports a tool invoked again with identical input.
func (r *EventReporter) ToolRepeated(llm any, toolName string, attempts int) {
	r.dispatch(EventToolRepeated, func(s Strategy) { s.ToolRepeated(llm, toolName, attempts) })
}

// ToolError reports a failed tool invocation.
func (r *EventReporter) ToolError(llm any) {
	r.dispatch(EventToolError, func(s Strategy) { s.ToolError(llm) })
}

// CrewExecutionStarted reports a kickoff and returns the handle for
// CrewExecutionEnded, which may be nil.
func (r *EventReporter) CrewExecutionStarted(c *crew.Crew, inputs map[string]any) (h *SpanHandle) {
	r.dispatch(EventCrewExecutionStarted, func(s Strategy) { h = s.CrewExecutionStarted(c, inputs) })
	return h
}

// CrewExecutionEnded closes the handle returned by CrewExecutionStarted.
func (r *EventReporter) CrewExecutionEnded(h *SpanHandle, c *crew.Crew, output string) {
	r.dispatch(EventCrewExecutionEnded, func(s Strategy) { s.CrewExecutionEnded(h, c, output) })
}

// Shutdown flushes and releases the strategy's resources.
func (r *EventReporter) Shutdown(ctx context.Context) (err error) {
	if r == nil || r.strategy == nil {
		return nil
	}
	sd, ok := r.strategy.(shutdowner)
	if !ok {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("telemetry shutdown panicked: %v", rec)
		}
	}()
	return sd.Shutdown(ctx)
}

func (r *EventReporter) dispatch(ev EventKind, call func(Strategy)) {
	if r == nil || r.strategy == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Debug("telemetry strategy panicked",
				zap.String("event", string(ev)),
				zap.Any("panic", rec),
			)
		}
	}()
	call(r.strategy)
}
