package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/logging"
)

const localStrategyName = "local"

// LocalLogStrategy writes one human-readable line per event to a sink.
// It keeps no state and never returns span handles.
type LocalLogStrategy struct {
	sink    logging.Sink
	owned   bool
	metrics *Metrics
	logger  *zap.Logger
}

// NewLocalLogStrategy logs through sink.
func NewLocalLogStrategy(sink logging.Sink, opts ...Option) *LocalLogStrategy {
	o := buildOptions(opts)
	return &LocalLogStrategy{
		sink:    sink,
		metrics: o.metrics,
		logger:  o.logger.With(zap.String("component", "telemetry"), zap.String("strategy", localStrategyName)),
	}
}

// Name implements Strategy.
func (s *LocalLogStrategy) Name() string { return localStrategyName }

// Initialize implements Strategy.
func (s *LocalLogStrategy) Initialize() {
	s.log("", logging.LevelInfo, "LocalLogStrategy initialized.")
}

// CrewCreated implements Strategy.
func (s *LocalLogStrategy) CrewCreated(c *crew.Crew) {
	if c == nil {
		s.metrics.recordDrop(localStrategyName, EventCrewCreated, reasonInvalid)
		return
	}
	s.log(EventCrewCreated, logging.LevelInfo, fmt.Sprintf(
		"Crew created: ID=%s, Process=%s, Memory=%t, Tasks=%d, Agents=%d",
		c.ID, c.Process, c.Memory, len(c.Tasks), len(c.Agents)))
}

// TaskStarted implements Strategy. Logging needs no span, so it returns nil.
func (s *LocalLogStrategy) TaskStarted(t *crew.Task) *SpanHandle {
	if t == nil {
		s.metrics.recordDrop(localStrategyName, EventTaskStarted, reasonInvalid)
		return nil
	}
	s.log(EventTaskStarted, logging.LevelInfo, fmt.Sprintf(
		"Task started: ID=%s, Description=%s, Expected Output=%s",
		t.ID, t.Description, t.ExpectedOutput))
	return nil
}

// TaskEnded implements Strategy.
func (s *LocalLogStrategy) TaskEnded(_ *SpanHandle, t *crew.Task) {
	if t == nil {
		s.metrics.recordDrop(localStrategyName, EventTaskEnded, reasonInvalid)
		return
	}
	output := "none"
	if t.Output != nil {
		output = t.Output.Raw
	}
	s.log(EventTaskEnded, logging.LevelInfo, fmt.Sprintf("Task ended: ID=%s, Output=%s", t.ID, output))
}

// ToolRepeated implements Strategy.
func (s *LocalLogStrategy) ToolRepeated(llm any, toolName string, attempts int) {
	s.log(EventToolRepeated, logging.LevelWarning, fmt.Sprintf(
		"Repeated usage of tool: %s by LLM %s. Attempts=%d", toolName, describeLLM(llm), attempts))
}

// ToolUsed implements Strategy.
func (s *LocalLogStrategy) ToolUsed(llm any, toolName string, attempts int) {
	s.log(EventToolUsed, logging.LevelInfo, fmt.Sprintf(
		"Tool usage: %s by LLM %s. Attempts=%d", toolName, describeLLM(llm), attempts))
}

// ToolError implements Strategy.
func (s *LocalLogStrategy) ToolError(llm any) {
	s.log(EventToolError, logging.LevelError, "Tool usage error by LLM: "+describeLLM(llm))
}

// CrewExecutionStarted implements Strategy. It returns nil.
func (s *LocalLogStrategy) CrewExecutionStarted(c *crew.Crew, inputs map[string]any) *SpanHandle {
	if c == nil {
		s.metrics.recordDrop(localStrategyName, EventCrewExecutionStarted, reasonInvalid)
		return nil
	}
	s.log(EventCrewExecutionStarted, logging.LevelInfo, fmt.Sprintf(
		"Crew execution started: ID=%s, Inputs=%v", c.ID, inputs))
	return nil
}

// CrewExecutionEnded implements Strategy.
func (s *LocalLogStrategy) CrewExecutionEnded(_ *SpanHandle, c *crew.Crew, output string) {
	if c == nil {
		s.metrics.recordDrop(localStrategyName, EventCrewExecutionEnded, reasonInvalid)
		return
	}
	s.log(EventCrewExecutionEnded, logging.LevelInfo, fmt.Sprintf(
		"Crew execution ended: ID=%s, Output=%s", c.ID, output))
}

// Shutdown closes the sink if the strategy opened it.
func (s *LocalLogStrategy) Shutdown(context.Context) error {
	if !s.owned {
		return nil
	}
	if closer, ok := s.sink.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (s *LocalLogStrategy) log(ev EventKind, level logging.Level, msg string) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.recordDrop(localStrategyName, ev, reasonPanic)
			s.logger.Debug("telemetry sink panicked", zap.String("event", string(ev)), zap.Any("panic", r))
		}
	}()
	if s.sink == nil {
		return
	}
	s.sink.Log(level, msg)
	if ev != "" {
		s.metrics.recordEvent(localStrategyName, ev)
	}
}
