package telemetry

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/testutil"
	"github.com/BaSui01/crewtel/testutil/fixtures"
)

func TestAgentsJSON(t *testing.T) {
	c := fixtures.SampleCrew(true)

	t.Run("without backstory", func(t *testing.T) {
		payload, err := agentsJSON(c.Agents, false)
		require.NoError(t, err)

		var records []map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &records))
		require.Len(t, records, 2)

		assert.Equal(t, c.Agents[0].ID.String(), records[0]["id"])
		assert.Equal(t, "researcher", records[0]["role"])
		assert.Equal(t, true, records[0]["delegation_enabled?"])
		assert.Equal(t, float64(crew.DefaultMaxIter), records[0]["max_iter"])
		assert.Equal(t, []any{"web_search"}, records[0]["tools_names"])
		assert.NotContains(t, records[0], "backstory")
		assert.Equal(t, "writer", records[1]["role"])
		assert.Equal(t, []any{}, records[1]["tools_names"])

		assert.NotContains(t, payload, "sk-secret-key")
		assert.NotContains(t, payload, "secret prompt")
	})

	t.Run("with backstory", func(t *testing.T) {
		payload, err := agentsJSON(c.Agents, true)
		require.NoError(t, err)
		assert.Contains(t, payload, `"backstory":"a careful analyst"`)
	})

	t.Run("unencodable llm degrades to class", func(t *testing.T) {
		c := fixtures.SampleCrew(true)
		c.Agents[0].LLM = &fixtures.ProviderLLM{ModelName: "local", Temperature: math.NaN(), Token: "tok-123"}
		c.Agents[1].LLM = fixtures.SampleLLM()

		payload, err := agentsJSON(c.Agents, false)
		require.NoError(t, err)

		records, ok := testutil.MustParseJSON(t, payload).([]any)
		require.True(t, ok)
		require.Len(t, records, 2)
		first := records[0].(map[string]any)
		second := records[1].(map[string]any)
		assert.Equal(t, "researcher", first["role"])
		assert.JSONEq(t, `{"class":"ProviderLLM"}`, first["llm"].(string))
		assert.Equal(t, "writer", second["role"])
		assert.Contains(t, second["llm"], `"model_name":"gpt-4o"`)
		assert.NotContains(t, payload, "tok-123")
	})

	t.Run("nil agents skipped", func(t *testing.T) {
		payload, err := agentsJSON([]*crew.Agent{nil}, false)
		require.NoError(t, err)
		assert.Equal(t, "[]", payload)
	})
}

func TestTasksJSON(t *testing.T) {
	c := fixtures.SampleCrew(false)
	c.Tasks[0].Agent = nil

	payload, err := tasksJSON(c.Tasks)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &records))
	require.Len(t, records, 3)

	assert.Equal(t, "None", records[0]["agent_role"])
	assert.Nil(t, records[0]["context"])
	assert.Equal(t, "writer", records[2]["agent_role"])
	assert.Equal(t, true, records[2]["async_execution?"])
	assert.Equal(t, []any{"research the topic", "outline the report"}, records[2]["context"])
	assert.Equal(t, []any{"spell_check"}, records[2]["tools_names"])
}

func TestTaskOutputsJSON(t *testing.T) {
	c := fixtures.SampleCrew(true)
	c.Tasks[0].Output = &crew.TaskOutput{Raw: "three sources"}
	c.Tasks[1].Output = &crew.TaskOutput{Err: errors.New("boom")}

	payload, err := taskOutputsJSON(c.Tasks)
	require.NoError(t, err)

	var records []taskOutputRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "three sources", records[0].Output)
	assert.Empty(t, records[1].Output)
	assert.Empty(t, records[2].Output)
}

func TestLLMPayload(t *testing.T) {
	t.Run("encodable values kept", func(t *testing.T) {
		got := llmPayload(fixtures.SampleLLM())
		assert.Equal(t, "gpt-4o", got["model_name"])
		assert.Equal(t, "LLM", got[ClassKey])
	})

	t.Run("NaN falls back to class", func(t *testing.T) {
		got := llmPayload(map[string]any{"model": "m", "temperature": math.Inf(1)})
		assert.Equal(t, map[string]any{ClassKey: "map[string]interface {}"}, got)
	})
}
