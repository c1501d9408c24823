package telemetry

import (
	"context"

	"github.com/BaSui01/crewtel/crew"
)

// EventKind names a reported lifecycle event.
type EventKind string

const (
	EventCrewCreated          EventKind = "crew_created"
	EventTaskStarted          EventKind = "task_started"
	EventTaskEnded            EventKind = "task_ended"
	EventToolUsed             EventKind = "tool_used"
	EventToolRepeated         EventKind = "tool_repeated"
	EventToolError            EventKind = "tool_error"
	EventCrewExecutionStarted EventKind = "crew_execution_started"
	EventCrewExecutionEnded   EventKind = "crew_execution_ended"
)

// Strategy is one way of recording the event vocabulary. Implementations
// must not panic and must not block on their destination.
type Strategy interface {
	Name() string
	Initialize()
	CrewCreated(c *crew.Crew)
	TaskStarted(t *crew.Task) *SpanHandle
	TaskEnded(span *SpanHandle, t *crew.Task)
	ToolUsed(llm any, toolName string, attempts int)
	ToolRepeated(llm any, toolName string, attempts int)
	ToolError(llm any)
	CrewExecutionStarted(c *crew.Crew, inputs map[string]any) *SpanHandle
	CrewExecutionEnded(span *SpanHandle, c *crew.Crew, output string)
}

// shutdowner is implemented by strategies holding flushable resources.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}
