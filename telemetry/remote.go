package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/crewtel/config"
	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/internal/tracing"
)

const (
	remoteStrategyName = "remote"

	// ScopeName is the instrumentation scope of every telemetry span.
	ScopeName = "crewtel.telemetry"
)

// Span names.
const (
	SpanCrewCreated       = "Crew Created"
	SpanTaskExecution     = "Task Execution"
	SpanToolUsage         = "Tool Usage"
	SpanToolRepeatedUsage = "Tool Repeated Usage"
	SpanToolUsageError    = "Tool Usage Error"
	SpanCrewExecution     = "Crew Execution"
)

// State is the lifecycle state of a RemoteTraceStrategy.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateNotReady
	StateTracerBound
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateNotReady:
		return "not_ready"
	case StateTracerBound:
		return "tracer_bound"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// RemoteTraceStrategy opens one span per event and exports it through a
// TracePipeline. If the pipeline cannot be built the strategy is NotReady
// for good and every method is a silent no-op.
type RemoteTraceStrategy struct {
	pipeline TracePipeline
	tracer   trace.Tracer
	counter  metric.Int64Counter
	state    atomic.Int32
	initMu   sync.Mutex
	version  string
	metrics  *Metrics
	logger   *zap.Logger
}

// NewRemoteTraceStrategy builds the export pipeline for cfg. Construction
// failures and panics leave the strategy NotReady and are not returned.
// The one exception is context cancellation or expiry, which is returned
// unchanged so shutdown of the host is not masked.
func NewRemoteTraceStrategy(ctx context.Context, cfg config.MonitoringConfig, opts ...Option) (*RemoteTraceStrategy, error) {
	o := buildOptions(opts)
	s := &RemoteTraceStrategy{
		version: tracing.Version(),
		metrics: o.metrics,
		logger:  o.logger.With(zap.String("component", "telemetry"), zap.String("strategy", remoteStrategyName)),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pipeline, err := buildPipeline(ctx, o.factory, cfg, o.logger)
	if err != nil {
		if isTermination(err) {
			return nil, err
		}
		s.state.Store(int32(StateNotReady))
		s.logger.Debug("trace pipeline unavailable, telemetry disabled", zap.Error(err))
		return s, nil
	}

	s.pipeline = pipeline
	s.tracer = pipeline.Tracer(ScopeName)
	if meter := pipeline.Meter(ScopeName); meter != nil {
		if counter, err := meter.Int64Counter("crewtel.events",
			metric.WithDescription("Telemetry events recorded"),
		); err == nil {
			s.counter = counter
		}
	}
	s.state.Store(int32(StateReady))
	return s, nil
}

func buildPipeline(ctx context.Context, factory PipelineFactory, cfg config.MonitoringConfig, logger *zap.Logger) (p TracePipeline, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("trace pipeline construction panicked: %v", r)
		}
	}()
	p, err = factory(ctx, cfg, logger)
	if err == nil && p == nil {
		err = errors.New("trace pipeline factory returned nil")
	}
	return p, err
}

func isTermination(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Name implements Strategy.
func (s *RemoteTraceStrategy) Name() string { return remoteStrategyName }

// State returns the current lifecycle state.
func (s *RemoteTraceStrategy) State() State {
	return State(s.state.Load())
}

func (s *RemoteTraceStrategy) ready() bool {
	st := s.State()
	return st == StateReady || st == StateTracerBound
}

// Initialize registers the pipeline process-wide. Only the first call on a
// Ready strategy does anything; a failed registration makes it NotReady.
func (s *RemoteTraceStrategy) Initialize() {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.State() != StateReady {
		return
	}
	if err := s.register(); err != nil {
		s.state.Store(int32(StateNotReady))
		s.logger.Debug("tracer registration failed, telemetry disabled", zap.Error(err))
		return
	}
	s.state.Store(int32(StateTracerBound))
}

func (s *RemoteTraceStrategy) register() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tracer registration panicked: %v", r)
		}
	}()
	return s.pipeline.Register()
}

// CrewCreated implements Strategy.
func (s *RemoteTraceStrategy) CrewCreated(c *crew.Crew) {
	if !s.admit(EventCrewCreated, c != nil) {
		return
	}
	s.record(EventCrewCreated, SpanCrewCreated, func(span trace.Span) {
		s.set(span, EventCrewCreated, "crewtel_version", s.version)
		s.set(span, EventCrewCreated, "go_version", runtime.Version())
		s.set(span, EventCrewCreated, "crew_id", c.ID.String())
		s.set(span, EventCrewCreated, "crew_process", string(c.Process))
		s.set(span, EventCrewCreated, "crew_memory", c.Memory)
		s.set(span, EventCrewCreated, "crew_number_of_tasks", len(c.Tasks))
		s.set(span, EventCrewCreated, "crew_number_of_agents", len(c.Agents))
		s.setRoster(span, EventCrewCreated, c, false)
		s.set(span, EventCrewCreated, "platform", runtime.GOOS+"/"+runtime.GOARCH)
		s.set(span, EventCrewCreated, "platform_system", runtime.GOOS)
		s.set(span, EventCrewCreated, "platform_arch", runtime.GOARCH)
		if release, version := platformRelease(); release != "" {
			s.set(span, EventCrewCreated, "platform_release", release)
			s.set(span, EventCrewCreated, "platform_version", version)
		}
		s.set(span, EventCrewCreated, "cpus", runtime.NumCPU())
	})
}

// TaskStarted implements Strategy. The returned handle must be passed to
// TaskEnded.
func (s *RemoteTraceStrategy) TaskStarted(t *crew.Task) *SpanHandle {
	if !s.admit(EventTaskStarted, t != nil) {
		return nil
	}
	return s.open(EventTaskStarted, SpanTaskExecution, func(span trace.Span) {
		s.set(span, EventTaskStarted, "task_id", t.ID.String())
		s.set(span, EventTaskStarted, "formatted_description", t.Description)
		s.set(span, EventTaskStarted, "formatted_expected_output", t.ExpectedOutput)
	})
}

// TaskEnded implements Strategy. The span ends with an Error status when
// the task output carries an error, Ok otherwise.
func (s *RemoteTraceStrategy) TaskEnded(h *SpanHandle, t *crew.Task) {
	if !s.admit(EventTaskEnded, true) {
		return
	}
	s.close(EventTaskEnded, h, func(span trace.Span) (codes.Code, string) {
		if t == nil {
			return codes.Ok, ""
		}
		s.set(span, EventTaskEnded, "output", rawOutput(t))
		if t.Output != nil && t.Output.Err != nil {
			return codes.Error, t.Output.Err.Error()
		}
		return codes.Ok, ""
	})
}

// ToolRepeated implements Strategy.
func (s *RemoteTraceStrategy) ToolRepeated(llm any, toolName string, attempts int) {
	s.toolSpan(EventToolRepeated, SpanToolRepeatedUsage, llm, toolName, attempts)
}

// ToolUsed implements Strategy.
func (s *RemoteTraceStrategy) ToolUsed(llm any, toolName string, attempts int) {
	s.toolSpan(EventToolUsed, SpanToolUsage, llm, toolName, attempts)
}

func (s *RemoteTraceStrategy) toolSpan(ev EventKind, name string, llm any, toolName string, attempts int) {
	if !s.admit(ev, true) {
		return
	}
	s.record(ev, name, func(span trace.Span) {
		s.set(span, ev, "crewtel_version", s.version)
		s.set(span, ev, "tool_name", toolName)
		s.set(span, ev, "attempts", attempts)
		if llm != nil {
			s.setJSON(span, ev, "llm", llmPayload(llm))
		}
	})
}

// ToolError implements Strategy.
func (s *RemoteTraceStrategy) ToolError(llm any) {
	if !s.admit(EventToolError, true) {
		return
	}
	s.record(EventToolError, SpanToolUsageError, func(span trace.Span) {
		s.set(span, EventToolError, "crewtel_version", s.version)
		if llm != nil {
			s.setJSON(span, EventToolError, "llm", llmPayload(llm))
		}
	})
}

// CrewExecutionStarted implements Strategy. Nothing is recorded unless the
// crew opted in with ShareCrew.
func (s *RemoteTraceStrategy) CrewExecutionStarted(c *crew.Crew, inputs map[string]any) *SpanHandle {
	if c != nil && !c.ShareCrew {
		s.metrics.recordDrop(remoteStrategyName, EventCrewExecutionStarted, reasonOptOut)
		return nil
	}
	if !s.admit(EventCrewExecutionStarted, c != nil) {
		return nil
	}
	return s.open(EventCrewExecutionStarted, SpanCrewExecution, func(span trace.Span) {
		s.set(span, EventCrewExecutionStarted, "crewtel_version", s.version)
		s.set(span, EventCrewExecutionStarted, "crew_id", c.ID.String())
		s.setJSON(span, EventCrewExecutionStarted, "inputs", inputs)
		s.setRoster(span, EventCrewExecutionStarted, c, true)
	})
}

// CrewExecutionEnded implements Strategy. A handle is always closed, but
// attributes are only attached for crews that opted in.
func (s *RemoteTraceStrategy) CrewExecutionEnded(h *SpanHandle, c *crew.Crew, output string) {
	if !s.admit(EventCrewExecutionEnded, true) {
		return
	}
	s.close(EventCrewExecutionEnded, h, func(span trace.Span) (codes.Code, string) {
		if c == nil || !c.ShareCrew {
			return codes.Ok, ""
		}
		s.set(span, EventCrewExecutionEnded, "crewtel_version", s.version)
		s.set(span, EventCrewExecutionEnded, "crew_output", output)
		if payload, err := taskOutputsJSON(c.Tasks); err == nil {
			s.set(span, EventCrewExecutionEnded, "crew_tasks_output", payload)
		} else {
			s.metrics.recordDrop(remoteStrategyName, EventCrewExecutionEnded, reasonAttribute)
		}
		return codes.Ok, ""
	})
}

// Shutdown flushes the pipeline. Later events are dropped.
func (s *RemoteTraceStrategy) Shutdown(ctx context.Context) error {
	if s.pipeline == nil {
		return nil
	}
	s.state.Store(int32(StateNotReady))
	return s.pipeline.Shutdown(ctx)
}

// admit gates an event on readiness and a usable subject.
func (s *RemoteTraceStrategy) admit(ev EventKind, valid bool) bool {
	if !s.ready() {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonNotReady)
		return false
	}
	if !valid {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonInvalid)
		return false
	}
	return true
}

func (s *RemoteTraceStrategy) start(name string) trace.Span {
	_, span := s.tracer.Start(context.Background(), name)
	return span
}

// record opens, fills and closes a span. The span is ended even if fill
// panics.
func (s *RemoteTraceStrategy) record(ev EventKind, name string, fill func(trace.Span)) {
	h := newSpanHandle(s.start(name))
	defer func() {
		if r := recover(); r != nil {
			h.end(codes.Error, "telemetry failure")
			s.dropPanic(ev, r)
			return
		}
		h.end(codes.Ok, "")
		s.recordEvent(ev)
	}()
	fill(h.span)
}

// open starts a span that outlives the call and hands it to the caller.
func (s *RemoteTraceStrategy) open(ev EventKind, name string, fill func(trace.Span)) (h *SpanHandle) {
	h = newSpanHandle(s.start(name))
	defer func() {
		if r := recover(); r != nil {
			h.end(codes.Error, "telemetry failure")
			h = nil
			s.dropPanic(ev, r)
		}
	}()
	fill(h.span)
	s.recordEvent(ev)
	return h
}

// close fills and ends a caller-held span exactly once.
func (s *RemoteTraceStrategy) close(ev EventKind, h *SpanHandle, fill func(trace.Span) (codes.Code, string)) {
	if h == nil || h.Ended() {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonNoSpan)
		return
	}
	code, desc := codes.Ok, ""
	defer func() {
		if r := recover(); r != nil {
			h.end(codes.Error, "telemetry failure")
			s.dropPanic(ev, r)
			return
		}
		if h.end(code, desc) {
			s.recordEvent(ev)
		}
	}()
	code, desc = fill(h.span)
}

func (s *RemoteTraceStrategy) recordEvent(ev EventKind) {
	s.metrics.recordEvent(remoteStrategyName, ev)
	if s.counter != nil {
		s.counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("event", string(ev))))
	}
}

func (s *RemoteTraceStrategy) dropPanic(ev EventKind, r any) {
	s.metrics.recordDrop(remoteStrategyName, ev, reasonPanic)
	s.logger.Debug("telemetry event failed", zap.String("event", string(ev)), zap.Any("panic", r))
}

// set attaches one attribute, ignoring values it cannot represent.
func (s *RemoteTraceStrategy) set(span trace.Span, ev EventKind, key string, value any) {
	kv, ok := toAttribute(key, value)
	if !ok {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonAttribute)
		return
	}
	span.SetAttributes(kv)
}

// setJSON attaches value encoded as a JSON string.
func (s *RemoteTraceStrategy) setJSON(span trace.Span, ev EventKind, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonAttribute)
		return
	}
	span.SetAttributes(attribute.String(key, string(data)))
}

// setRoster attaches crew_agents and crew_tasks.
func (s *RemoteTraceStrategy) setRoster(span trace.Span, ev EventKind, c *crew.Crew, shared bool) {
	if agents, err := agentsJSON(c.Agents, shared); err == nil {
		s.set(span, ev, "crew_agents", agents)
	} else {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonAttribute)
	}
	if tasks, err := tasksJSON(c.Tasks); err == nil {
		s.set(span, ev, "crew_tasks", tasks)
	} else {
		s.metrics.recordDrop(remoteStrategyName, ev, reasonAttribute)
	}
}

func toAttribute(key string, value any) (attribute.KeyValue, bool) {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v), true
	case bool:
		return attribute.Bool(key, v), true
	case int:
		return attribute.Int(key, v), true
	case int64:
		return attribute.Int64(key, v), true
	case float64:
		return attribute.Float64(key, v), true
	case []string:
		return attribute.StringSlice(key, v), true
	case fmt.Stringer:
		return attribute.String(key, v.String()), true
	}
	return attribute.KeyValue{}, false
}
