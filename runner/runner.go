package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/telemetry"
)

// Reporter is the subset of telemetry.EventReporter used by the runner.
type Reporter interface {
	CrewCreated(c *crew.Crew)
	TaskStarted(t *crew.Task) *telemetry.SpanHandle
	TaskEnded(h *telemetry.SpanHandle, t *crew.Task)
	ToolUsed(llm any, toolName string, attempts int)
	ToolRepeated(llm any, toolName string, attempts int)
	ToolError(llm any)
	CrewExecutionStarted(c *crew.Crew, inputs map[string]any) *telemetry.SpanHandle
	CrewExecutionEnded(h *telemetry.SpanHandle, c *crew.Crew, output string)
}

var _ Reporter = (*telemetry.EventReporter)(nil)

// Assignment is one task handed to an executor.
type Assignment struct {
	Agent   *crew.Agent
	Task    *crew.Task
	Context string
	Inputs  map[string]any
	Tools   *ToolTracker
}

// Executor performs a task on behalf of an agent.
type Executor interface {
	Execute(ctx context.Context, a Assignment) (string, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, a Assignment) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, a Assignment) (string, error) {
	return f(ctx, a)
}

// ErrExecutorPanic wraps a panic raised by an Executor.
var ErrExecutorPanic = errors.New("executor panicked")

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxConcurrency limits how many async tasks run at once. Zero or less
// means unlimited.
func WithMaxConcurrency(n int) Option {
	return func(r *Runner) { r.maxConcurrency = n }
}

// Runner executes a crew and reports its lifecycle. Kickoff must not be
// called concurrently on the same Runner.
type Runner struct {
	crew           *crew.Crew
	reporter       Reporter
	executor       Executor
	logger         *zap.Logger
	maxConcurrency int
	templates      map[*crew.Task]template
}

// template is a task's text before input interpolation.
type template struct {
	description    string
	expectedOutput string
}

// NewRunner validates c and reports it as created. A nil reporter is
// replaced by one that records nothing.
func NewRunner(c *crew.Crew, reporter Reporter, executor Executor, opts ...Option) (*Runner, error) {
	if c == nil {
		return nil, errors.New("runner: nil crew")
	}
	if executor == nil {
		return nil, errors.New("runner: nil executor")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	if reporter == nil {
		reporter = (*telemetry.EventReporter)(nil)
	}

	r := &Runner{
		crew:      c,
		reporter:  reporter,
		executor:  executor,
		logger:    zap.NewNop(),
		templates: make(map[*crew.Task]template, len(c.Tasks)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("crew_id", c.ID.String()), zap.String("crew", c.Name))

	reporter.CrewCreated(c)
	return r, nil
}

// Kickoff runs every task and returns the output of the last one. The crew
// execution span is closed on every return path.
func (r *Runner) Kickoff(ctx context.Context, inputs map[string]any) (output string, err error) {
	c := r.crew
	r.interpolate(inputs)

	h := r.reporter.CrewExecutionStarted(c, inputs)
	defer func() {
		r.reporter.CrewExecutionEnded(h, c, output)
	}()

	r.logger.Info("crew kickoff",
		zap.String("process", string(c.Process)),
		zap.Int("tasks", len(c.Tasks)),
	)

	var last *crew.Task
	var pending *errgroup.Group
	var pctx context.Context
	inFlight := make(map[*crew.Task]struct{})

	wait := func() error {
		if pending == nil {
			return nil
		}
		err := pending.Wait()
		pending = nil
		clear(inFlight)
		return err
	}

	for _, task := range c.Tasks {
		agent, err := r.assignee(task)
		if err != nil {
			_ = wait()
			return "", err
		}

		if task.AsyncExecution {
			// An async task whose context is still running waits for the
			// current batch before starting a new one.
			if dependsOn(task, inFlight) {
				if err := wait(); err != nil {
					return "", err
				}
			}
			if pending == nil {
				pending, pctx = errgroup.WithContext(ctx)
				if r.maxConcurrency > 0 {
					pending.SetLimit(r.maxConcurrency)
				}
			}
			task, gctx := task, pctx
			inFlight[task] = struct{}{}
			pending.Go(func() error {
				return r.runTask(gctx, agent, task, inputs)
			})
			last = task
			continue
		}

		if err := wait(); err != nil {
			return "", err
		}
		if err := r.runTask(ctx, agent, task, inputs); err != nil {
			return "", err
		}
		last = task
	}
	if err := wait(); err != nil {
		return "", err
	}

	if last != nil && last.Output != nil {
		output = last.Output.Raw
	}
	r.logger.Info("crew finished", zap.Int("output_bytes", len(output)))
	return output, nil
}

// assignee picks the agent for a task. Hierarchical crews hand unassigned
// tasks to the manager.
func (r *Runner) assignee(t *crew.Task) (*crew.Agent, error) {
	if t.Agent != nil {
		return t.Agent, nil
	}
	if r.crew.Process == crew.ProcessHierarchical {
		if m := r.crew.Manager(); m != nil {
			return m, nil
		}
		return nil, crew.ErrNoManager
	}
	return nil, fmt.Errorf("task %s: %w", t.ID, crew.ErrUnassignedTask)
}

func (r *Runner) runTask(ctx context.Context, agent *crew.Agent, t *crew.Task, inputs map[string]any) (err error) {
	h := r.reporter.TaskStarted(t)
	defer func() {
		r.reporter.TaskEnded(h, t)
	}()

	if err := ctx.Err(); err != nil {
		t.Output = &crew.TaskOutput{Err: err}
		return err
	}

	raw, err := r.execute(ctx, Assignment{
		Agent:   agent,
		Task:    t,
		Context: contextText(t),
		Inputs:  inputs,
		Tools:   NewToolTracker(t, agent, r.reporter),
	})
	if err != nil {
		t.Output = &crew.TaskOutput{Err: err}
		r.logger.Warn("task failed",
			zap.String("task_id", t.ID.String()),
			zap.String("agent", agent.Role),
			zap.Error(err),
		)
		return fmt.Errorf("task %s: %w", t.ID, err)
	}

	t.Output = &crew.TaskOutput{Raw: raw}
	if r.crew.Verbose || agent.Verbose {
		r.logger.Debug("task finished",
			zap.String("task_id", t.ID.String()),
			zap.String("agent", agent.Role),
		)
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, a Assignment) (raw string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrExecutorPanic, rec)
		}
	}()
	return r.executor.Execute(ctx, a)
}

// contextText joins the outputs of the tasks t depends on.
func contextText(t *crew.Task) string {
	parts := make([]string, 0, len(t.Context))
	for _, dep := range t.Context {
		if dep != nil && dep.Output != nil && dep.Output.Raw != "" {
			parts = append(parts, dep.Output.Raw)
		}
	}
	return strings.Join(parts, "\n\n")
}

func dependsOn(t *crew.Task, running map[*crew.Task]struct{}) bool {
	for _, dep := range t.Context {
		if _, ok := running[dep]; ok {
			return true
		}
	}
	return false
}

// interpolate fills {key} placeholders in task descriptions and expected
// outputs. Each kickoff starts from the text the task had when first seen
// by this runner, so placeholders survive repeated kickoffs.
func (r *Runner) interpolate(inputs map[string]any) {
	pairs := make([]string, 0, len(inputs)*2)
	for k, v := range inputs {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	replacer := strings.NewReplacer(pairs...)
	for _, t := range r.crew.Tasks {
		tmpl, ok := r.templates[t]
		if !ok {
			tmpl = template{description: t.Description, expectedOutput: t.ExpectedOutput}
			r.templates[t] = tmpl
		}
		t.Description = replacer.Replace(tmpl.description)
		t.ExpectedOutput = replacer.Replace(tmpl.expectedOutput)
	}
}
