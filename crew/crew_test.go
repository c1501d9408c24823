package crew

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCrew(t *testing.T, process ProcessType) (*Crew, *Agent, *Agent) {
	t.Helper()
	c := New(Config{Name: "test-crew", Process: process})
	researcher := c.AddAgent(&Agent{Role: "researcher", Goal: "find facts", AllowDelegation: true})
	writer := c.AddAgent(&Agent{Role: "writer", Goal: "write prose"})
	return c, researcher, writer
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{Name: "defaults"})
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, ProcessSequential, c.Process)
	assert.Empty(t, c.Agents)
	assert.Empty(t, c.Tasks)
}

func TestCrew_AddAgent_FillsIDAndMaxIter(t *testing.T) {
	c := New(Config{})
	a := c.AddAgent(&Agent{Role: "r"})
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, DefaultMaxIter, a.MaxIter)

	fixed := uuid.New()
	b := c.AddAgent(&Agent{ID: fixed, MaxIter: 3})
	assert.Equal(t, fixed, b.ID)
	assert.Equal(t, 3, b.MaxIter)
	assert.Len(t, c.Agents, 2)
}

func TestCrew_Manager(t *testing.T) {
	c, researcher, _ := newTestCrew(t, ProcessHierarchical)
	assert.Same(t, researcher, c.Manager())

	plain := New(Config{})
	plain.AddAgent(&Agent{Role: "solo"})
	assert.Nil(t, plain.Manager())
}

func TestCrew_Validate(t *testing.T) {
	t.Run("sequential ok", func(t *testing.T) {
		c, researcher, writer := newTestCrew(t, ProcessSequential)
		c.AddTask(&Task{Description: "a", Agent: researcher})
		c.AddTask(&Task{Description: "b", Agent: writer})
		assert.NoError(t, c.Validate())
	})

	t.Run("no agents", func(t *testing.T) {
		c := New(Config{})
		assert.ErrorIs(t, c.Validate(), ErrNoAgents)
	})

	t.Run("no tasks", func(t *testing.T) {
		c, _, _ := newTestCrew(t, ProcessSequential)
		assert.ErrorIs(t, c.Validate(), ErrNoTasks)
	})

	t.Run("sequential unassigned task", func(t *testing.T) {
		c, _, _ := newTestCrew(t, ProcessSequential)
		c.AddTask(&Task{Description: "orphan"})
		assert.ErrorIs(t, c.Validate(), ErrUnassignedTask)
	})

	t.Run("hierarchical allows unassigned task", func(t *testing.T) {
		c, _, _ := newTestCrew(t, ProcessHierarchical)
		c.AddTask(&Task{Description: "orphan"})
		assert.NoError(t, c.Validate())
	})

	t.Run("hierarchical without manager", func(t *testing.T) {
		c := New(Config{Process: ProcessHierarchical})
		c.AddAgent(&Agent{Role: "solo"})
		c.AddTask(&Task{Description: "x"})
		assert.ErrorIs(t, c.Validate(), ErrNoManager)
	})

	t.Run("foreign agent", func(t *testing.T) {
		c, _, _ := newTestCrew(t, ProcessSequential)
		c.AddTask(&Task{Description: "x", Agent: &Agent{Role: "stranger"}})
		assert.ErrorIs(t, c.Validate(), ErrForeignAgent)
	})

	t.Run("unknown process", func(t *testing.T) {
		c, researcher, _ := newTestCrew(t, "consensus")
		c.AddTask(&Task{Description: "x", Agent: researcher})
		assert.ErrorIs(t, c.Validate(), ErrUnknownProcess)
	})
}

func TestTask_FindTool(t *testing.T) {
	run := func(context.Context, map[string]any) (string, error) { return "ok", nil }
	agent := &Agent{Tools: []Tool{{Name: "search", Description: "agent search", Run: run}, {Name: "calc", Run: run}}}
	task := &Task{Agent: agent, Tools: []Tool{{Name: "search", Description: "task search", Run: run}}}

	tool, ok := task.FindTool("search")
	require.True(t, ok)
	assert.Equal(t, "task search", tool.Description)

	tool, ok = task.FindTool("calc")
	require.True(t, ok)
	assert.Equal(t, "calc", tool.Name)

	_, ok = task.FindTool("missing")
	assert.False(t, ok)

	_, ok = (&Task{}).FindTool("search")
	assert.False(t, ok)
}
