package crew

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DefaultMaxIter 是未显式设置时成员的最大迭代次数
const DefaultMaxIter = 25

// ProcessType 定义任务处理方式.
type ProcessType string

const (
	ProcessSequential   ProcessType = "sequential"
	ProcessHierarchical ProcessType = "hierarchical"
)

// LLM 是内置的语言模型配置.
type LLM struct {
	Name         string  `json:"name" yaml:"name"`
	ModelName    string  `json:"model_name" yaml:"model_name"`
	BaseURL      string  `json:"base_url" yaml:"base_url"`
	Model        string  `json:"model" yaml:"model"`
	TopK         int     `json:"top_k" yaml:"top_k"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
	APIKey       string  `json:"api_key" yaml:"api_key"`
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt"`
}

// ToolFunc 执行一次工具调用.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool 是成员或任务可用的工具.
type Tool struct {
	Name        string
	Description string
	Run         ToolFunc
}

// Agent 代表团队中的一名成员.
type Agent struct {
	ID              uuid.UUID
	Role            string
	Goal            string
	Backstory       string
	Verbose         bool
	MaxIter         int
	MaxRPM          int
	PromptFile      string
	AllowDelegation bool
	LLM             any // *LLM 或任意供应商配置对象
	Tools           []Tool
}

// TaskOutput 是任务执行的结果.
type TaskOutput struct {
	Raw string
	Err error
}

// Task 代表团队中的一项任务.
type Task struct {
	ID             uuid.UUID
	Description    string
	ExpectedOutput string
	AsyncExecution bool
	HumanInput     bool
	Agent          *Agent
	Context        []*Task
	Tools          []Tool
	Output         *TaskOutput
}

// Crew 代表一组成员一起工作.
type Crew struct {
	ID        uuid.UUID
	Name      string
	Process   ProcessType
	Memory    bool
	ShareCrew bool
	Verbose   bool
	Agents    []*Agent
	Tasks     []*Task
}

// Config 配置一个团队.
type Config struct {
	Name      string
	Process   ProcessType
	Memory    bool
	ShareCrew bool
	Verbose   bool
}

var (
	ErrNoTasks        = errors.New("crew has no tasks")
	ErrNoAgents       = errors.New("crew has no agents")
	ErrUnassignedTask = errors.New("task has no agent")
	ErrForeignAgent   = errors.New("task agent is not a crew member")
	ErrNoManager      = errors.New("hierarchical crew needs an agent with delegation enabled")
	ErrUnknownProcess = errors.New("unknown process")
)

// New 创建新的团队.
func New(cfg Config) *Crew {
	process := cfg.Process
	if process == "" {
		process = ProcessSequential
	}
	return &Crew{
		ID:        uuid.New(),
		Name:      cfg.Name,
		Process:   process,
		Memory:    cfg.Memory,
		ShareCrew: cfg.ShareCrew,
		Verbose:   cfg.Verbose,
		Agents:    make([]*Agent, 0),
		Tasks:     make([]*Task, 0),
	}
}

// AddAgent 为团队增加一名成员，补全 ID 与默认迭代次数.
func (c *Crew) AddAgent(a *Agent) *Agent {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.MaxIter <= 0 {
		a.MaxIter = DefaultMaxIter
	}
	c.Agents = append(c.Agents, a)
	return a
}

// AddTask 给团队添加任务.
func (c *Crew) AddTask(t *Task) *Task {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	c.Tasks = append(c.Tasks, t)
	return t
}

// Manager 返回层级模式下负责委派的成员.
func (c *Crew) Manager() *Agent {
	for _, a := range c.Agents {
		if a.AllowDelegation {
			return a
		}
	}
	return nil
}

// Validate 检查团队是否可以执行.
func (c *Crew) Validate() error {
	if len(c.Agents) == 0 {
		return ErrNoAgents
	}
	if len(c.Tasks) == 0 {
		return ErrNoTasks
	}

	members := make(map[*Agent]struct{}, len(c.Agents))
	for _, a := range c.Agents {
		members[a] = struct{}{}
	}

	switch c.Process {
	case ProcessSequential:
		for i, t := range c.Tasks {
			if t.Agent == nil {
				return fmt.Errorf("task %d (%s): %w", i, t.ID, ErrUnassignedTask)
			}
		}
	case ProcessHierarchical:
		if c.Manager() == nil {
			return ErrNoManager
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProcess, c.Process)
	}

	for i, t := range c.Tasks {
		if t.Agent == nil {
			continue
		}
		if _, ok := members[t.Agent]; !ok {
			return fmt.Errorf("task %d (%s): %w", i, t.ID, ErrForeignAgent)
		}
	}
	return nil
}

// FindTool 在任务与成员的工具中按名称查找，任务工具优先.
func (t *Task) FindTool(name string) (Tool, bool) {
	for _, tool := range t.Tools {
		if tool.Name == name {
			return tool, true
		}
	}
	if t.Agent != nil {
		for _, tool := range t.Agent.Tools {
			if tool.Name == name {
				return tool, true
			}
		}
	}
	return Tool{}, false
}
