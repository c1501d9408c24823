package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/cases"

	"github.com/BaSui01/crewtel/crew"
)

var (
	// ErrToolNotFound is returned for a tool the task and agent do not have.
	ErrToolNotFound = errors.New("tool not found")

	// ErrRepeatedUsage is returned when a tool is called again with the
	// same arguments as the previous call.
	ErrRepeatedUsage = errors.New("tool already used with the same input")
)

// ToolTracker runs tools for one task and reports each call. It is safe for
// concurrent use.
type ToolTracker struct {
	task     *crew.Task
	agent    *crew.Agent
	reporter Reporter

	mu       sync.Mutex
	last     string
	attempts map[string]int
}

// NewToolTracker tracks tool calls made by agent while working on t.
func NewToolTracker(t *crew.Task, agent *crew.Agent, reporter Reporter) *ToolTracker {
	return &ToolTracker{
		task:     t,
		agent:    agent,
		reporter: reporter,
		attempts: make(map[string]int),
	}
}

// Use calls the named tool with args. A call identical to the previous one
// is not run and reports ToolRepeated; unknown tools and tool failures
// report ToolError; everything else reports ToolUsed.
func (tr *ToolTracker) Use(ctx context.Context, name string, args map[string]any) (string, error) {
	llm := tr.llm()

	tool, ok := tr.find(name)
	if !ok {
		tr.reporter.ToolError(llm)
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	key := callKey(tool.Name, args)
	tr.mu.Lock()
	tr.attempts[tool.Name]++
	attempts := tr.attempts[tool.Name]
	repeated := key == tr.last
	tr.last = key
	tr.mu.Unlock()

	if repeated {
		tr.reporter.ToolRepeated(llm, tool.Name, attempts)
		return "", fmt.Errorf("%w: %s", ErrRepeatedUsage, tool.Name)
	}
	if tool.Run == nil {
		tr.reporter.ToolError(llm)
		return "", fmt.Errorf("tool %s has no implementation", tool.Name)
	}

	out, err := tool.Run(ctx, args)
	if err != nil {
		tr.reporter.ToolError(llm)
		return "", fmt.Errorf("tool %s: %w", tool.Name, err)
	}
	tr.reporter.ToolUsed(llm, tool.Name, attempts)
	return out, nil
}

// Attempts returns how many times the named tool was requested.
func (tr *ToolTracker) Attempts(name string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.attempts[name]
}

func (tr *ToolTracker) llm() any {
	if tr.agent == nil {
		return nil
	}
	return tr.agent.LLM
}

// find matches exactly first, then ignoring case.
func (tr *ToolTracker) find(name string) (crew.Tool, bool) {
	if tool, ok := tr.task.FindTool(name); ok {
		return tool, true
	}
	folded := cases.Fold().String(name)
	candidates := append([]crew.Tool{}, tr.task.Tools...)
	if tr.agent != nil {
		candidates = append(candidates, tr.agent.Tools...)
	}
	for _, tool := range candidates {
		if cases.Fold().String(tool.Name) == folded {
			return tool, true
		}
	}
	return crew.Tool{}, false
}

func callKey(name string, args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return name + "\x00" + fmt.Sprint(args)
	}
	return name + "\x00" + string(data)
}
