package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/runner"
	"github.com/BaSui01/crewtel/testutil/fixtures"
)

func newTracker(t *testing.T) (*runner.ToolTracker, *fakeReporter, *crew.Task) {
	t.Helper()
	c := fixtures.SampleCrew(true)
	task := c.Tasks[2]
	task.Tools = append(task.Tools, crew.Tool{
		Name: "flaky",
		Run: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("rate limited")
		},
	})
	rep := &fakeReporter{}
	return runner.NewToolTracker(task, task.Agent, rep), rep, task
}

func TestToolTracker_Use(t *testing.T) {
	tr, rep, _ := newTracker(t)
	ctx := context.Background()

	out, err := tr.Use(ctx, "Spell_Check", map[string]any{"query": "teh"})
	require.NoError(t, err)
	assert.Equal(t, "TEH", out)

	_, err = tr.Use(ctx, "Spell_Check", map[string]any{"query": "teh"})
	assert.ErrorIs(t, err, runner.ErrRepeatedUsage)

	_, err = tr.Use(ctx, "Spell_Check", map[string]any{"query": "recieve"})
	require.NoError(t, err)

	assert.Equal(t, []string{"tool_used", "tool_repeated", "tool_used"}, rep.kinds())
	events := rep.find("tool_repeated")
	assert.Equal(t, "Spell_Check", events[0].tool)
	assert.Equal(t, 2, events[0].n)
	assert.Equal(t, 3, rep.find("tool_used")[1].n)
	assert.Equal(t, 3, tr.Attempts("Spell_Check"))
}

func TestToolTracker_Errors(t *testing.T) {
	tr, rep, _ := newTracker(t)
	ctx := context.Background()

	_, err := tr.Use(ctx, "missing", nil)
	assert.ErrorIs(t, err, runner.ErrToolNotFound)

	_, err = tr.Use(ctx, "flaky", nil)
	assert.EqualError(t, err, "tool flaky: rate limited")

	assert.Equal(t, []string{"tool_error", "tool_error"}, rep.kinds())
}

func TestToolTracker_FindIgnoresCase(t *testing.T) {
	tr, rep, _ := newTracker(t)

	out, err := tr.Use(context.Background(), "spell_check", map[string]any{"query": "ok"})
	require.NoError(t, err)
	assert.Equal(t, "OK", out)
	assert.Equal(t, "Spell_Check", rep.find("tool_used")[0].tool)
}

func TestToolTracker_DifferentToolsAreNotRepeats(t *testing.T) {
	c := fixtures.SampleCrew(true)
	task := c.Tasks[0]
	task.Tools = []crew.Tool{fixtures.EchoTool("a"), fixtures.EchoTool("b")}
	rep := &fakeReporter{}
	tr := runner.NewToolTracker(task, task.Agent, rep)

	args := map[string]any{"query": "same"}
	_, err := tr.Use(context.Background(), "a", args)
	require.NoError(t, err)
	_, err = tr.Use(context.Background(), "b", args)
	require.NoError(t, err)
	_, err = tr.Use(context.Background(), "a", args)
	require.NoError(t, err)

	assert.Equal(t, []string{"tool_used", "tool_used", "tool_used"}, rep.kinds())
	assert.Equal(t, 2, rep.find("tool_used")[2].n)
}
