package crew

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition 是团队的 YAML 描述.
type Definition struct {
	Name      string            `yaml:"name"`
	Process   ProcessType       `yaml:"process"`
	Memory    bool              `yaml:"memory"`
	ShareCrew bool              `yaml:"share_crew"`
	Verbose   bool              `yaml:"verbose"`
	Agents    []AgentDefinition `yaml:"agents"`
	Tasks     []TaskDefinition  `yaml:"tasks"`
}

// AgentDefinition 描述一名成员，Key 供任务引用.
type AgentDefinition struct {
	Key             string   `yaml:"key"`
	Role            string   `yaml:"role"`
	Goal            string   `yaml:"goal"`
	Backstory       string   `yaml:"backstory"`
	Verbose         bool     `yaml:"verbose"`
	MaxIter         int      `yaml:"max_iter"`
	MaxRPM          int      `yaml:"max_rpm"`
	PromptFile      string   `yaml:"prompt_file"`
	AllowDelegation bool     `yaml:"allow_delegation"`
	LLM             *LLM     `yaml:"llm"`
	Tools           []string `yaml:"tools"`
}

// TaskDefinition 描述一项任务，Agent 与 Context 通过 Key 引用.
type TaskDefinition struct {
	Key            string   `yaml:"key"`
	Description    string   `yaml:"description"`
	ExpectedOutput string   `yaml:"expected_output"`
	AsyncExecution bool     `yaml:"async_execution"`
	HumanInput     bool     `yaml:"human_input"`
	Agent          string   `yaml:"agent"`
	Context        []string `yaml:"context"`
	Tools          []string `yaml:"tools"`
}

// LoadDefinition 从 YAML 文件加载团队定义
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crew definition: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition 解析 YAML 团队定义
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse crew definition: %w", err)
	}
	return &def, nil
}

// Build 把定义解析为 Crew。tools 按名称提供工具实现，未注册的名称
// 仍以无实现的 Tool 保留，调用时由上层报告错误。
func (d *Definition) Build(tools map[string]Tool) (*Crew, error) {
	c := New(Config{
		Name:      d.Name,
		Process:   d.Process,
		Memory:    d.Memory,
		ShareCrew: d.ShareCrew,
		Verbose:   d.Verbose,
	})

	agents := make(map[string]*Agent, len(d.Agents))
	for i, ad := range d.Agents {
		key := ad.Key
		if key == "" {
			key = ad.Role
		}
		if _, dup := agents[key]; dup {
			return nil, fmt.Errorf("agent %d: duplicate key %q", i, key)
		}
		a := &Agent{
			Role:            ad.Role,
			Goal:            ad.Goal,
			Backstory:       ad.Backstory,
			Verbose:         ad.Verbose,
			MaxIter:         ad.MaxIter,
			MaxRPM:          ad.MaxRPM,
			PromptFile:      ad.PromptFile,
			AllowDelegation: ad.AllowDelegation,
			Tools:           resolveTools(ad.Tools, tools),
		}
		if ad.LLM != nil {
			a.LLM = ad.LLM
		}
		agents[key] = c.AddAgent(a)
	}

	tasks := make(map[string]*Task, len(d.Tasks))
	for i, td := range d.Tasks {
		t := &Task{
			Description:    td.Description,
			ExpectedOutput: td.ExpectedOutput,
			AsyncExecution: td.AsyncExecution,
			HumanInput:     td.HumanInput,
			Tools:          resolveTools(td.Tools, tools),
		}
		if td.Agent != "" {
			a, ok := agents[td.Agent]
			if !ok {
				return nil, fmt.Errorf("task %d: unknown agent %q", i, td.Agent)
			}
			t.Agent = a
		}
		for _, ref := range td.Context {
			ctxTask, ok := tasks[ref]
			if !ok {
				return nil, fmt.Errorf("task %d: context %q must name an earlier task", i, ref)
			}
			t.Context = append(t.Context, ctxTask)
		}
		c.AddTask(t)
		if td.Key != "" {
			tasks[td.Key] = t
		}
	}

	return c, nil
}

func resolveTools(names []string, registry map[string]Tool) []Tool {
	if len(names) == 0 {
		return nil
	}
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := registry[name]; ok {
			out = append(out, tool)
			continue
		}
		out = append(out, Tool{Name: name})
	}
	return out
}
