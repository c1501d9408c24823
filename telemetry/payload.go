package telemetry

import (
	"encoding/json"

	"golang.org/x/text/cases"

	"github.com/BaSui01/crewtel/crew"
)

type agentRecord struct {
	ID                string   `json:"id"`
	Role              string   `json:"role"`
	Goal              string   `json:"goal"`
	Backstory         string   `json:"backstory,omitempty"`
	Verbose           bool     `json:"verbose?"`
	MaxIter           int      `json:"max_iter"`
	MaxRPM            int      `json:"max_rpm"`
	I18N              string   `json:"i18n"`
	LLM               string   `json:"llm"`
	DelegationEnabled bool     `json:"delegation_enabled?"`
	ToolsNames        []string `json:"tools_names"`
}

type taskRecord struct {
	ID             string   `json:"id"`
	Description    string   `json:"description"`
	ExpectedOutput string   `json:"expected_output"`
	AsyncExecution bool     `json:"async_execution?"`
	HumanInput     bool     `json:"human_input?"`
	AgentRole      string   `json:"agent_role"`
	Context        []string `json:"context"`
	ToolsNames     []string `json:"tools_names"`
}

type taskOutputRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Output      string `json:"output"`
}

// agentsJSON serializes the agent roster. Backstories are only included
// when the crew owner opted in to sharing.
func agentsJSON(agents []*crew.Agent, withBackstory bool) (string, error) {
	records := make([]agentRecord, 0, len(agents))
	for _, a := range agents {
		if a == nil {
			continue
		}
		rec := agentRecord{
			ID:                a.ID.String(),
			Role:              a.Role,
			Goal:              a.Goal,
			Verbose:           a.Verbose,
			MaxIter:           a.MaxIter,
			MaxRPM:            a.MaxRPM,
			I18N:              a.PromptFile,
			LLM:               llmJSON(a.LLM),
			DelegationEnabled: a.AllowDelegation,
			ToolsNames:        toolNames(a.Tools),
		}
		if withBackstory {
			rec.Backstory = a.Backstory
		}
		records = append(records, rec)
	}
	return marshalString(records)
}

func tasksJSON(tasks []*crew.Task) (string, error) {
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		rec := taskRecord{
			ID:             t.ID.String(),
			Description:    t.Description,
			ExpectedOutput: t.ExpectedOutput,
			AsyncExecution: t.AsyncExecution,
			HumanInput:     t.HumanInput,
			AgentRole:      "None",
			ToolsNames:     toolNames(t.Tools),
		}
		if t.Agent != nil {
			rec.AgentRole = t.Agent.Role
		}
		if len(t.Context) > 0 {
			rec.Context = make([]string, 0, len(t.Context))
			for _, c := range t.Context {
				if c != nil {
					rec.Context = append(rec.Context, c.Description)
				}
			}
		}
		records = append(records, rec)
	}
	return marshalString(records)
}

func taskOutputsJSON(tasks []*crew.Task) (string, error) {
	records := make([]taskOutputRecord, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		records = append(records, taskOutputRecord{
			ID:          t.ID.String(),
			Description: t.Description,
			Output:      rawOutput(t),
		})
	}
	return marshalString(records)
}

// llmPayload returns the allow-listed LLM attributes, or only the class name
// when one of the values cannot be encoded as JSON (NaN temperature, a
// channel-typed model field).
func llmPayload(llm any) map[string]any {
	attrs := SafeLLMAttributes(llm)
	if _, err := json.Marshal(attrs); err == nil {
		return attrs
	}
	fallback := make(map[string]any, 1)
	if class, ok := attrs[ClassKey]; ok {
		fallback[ClassKey] = class
	}
	return fallback
}

func llmJSON(llm any) string {
	s, err := marshalString(llmPayload(llm))
	if err != nil {
		return "{}"
	}
	return s
}

// toolNames case-folds tool names. Never nil so the payload carries [].
func toolNames(tools []crew.Tool) []string {
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, cases.Fold().String(tool.Name))
	}
	return names
}

func rawOutput(t *crew.Task) string {
	if t.Output == nil {
		return ""
	}
	return t.Output.Raw
}

func marshalString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
