// =============================================================================
// 📦 测试数据工厂 - 团队测试数据
// =============================================================================
// 提供预定义的团队、成员与 LLM 配置，用于测试
// =============================================================================
package fixtures

import (
	"context"
	"strings"

	"github.com/BaSui01/crewtel/crew"
)

// =============================================================================
// 🤖 LLM 配置工厂
// =============================================================================

// SampleLLM 返回带凭据和提示词的 LLM 配置，用于检查脱敏
func SampleLLM() *crew.LLM {
	return &crew.LLM{
		Name:         "primary",
		ModelName:    "gpt-4o",
		BaseURL:      "https://api.example.com/v1",
		Model:        "gpt-4o-2024-08-06",
		TopK:         40,
		Temperature:  0.2,
		APIKey:       "sk-secret-key",
		SystemPrompt: "you are a secret prompt",
	}
}

// ProviderLLM 模拟第三方供应商的配置对象
type ProviderLLM struct {
	ModelName   string  `json:"model_name"`
	Temperature float64 `json:"temperature"`
	Token       string  `json:"token"`
	Prompt      string  `json:"prompt"`
}

// =============================================================================
// 🛠️ 工具工厂
// =============================================================================

// EchoTool 返回一个回显参数的工具
func EchoTool(name string) crew.Tool {
	return crew.Tool{
		Name:        name,
		Description: "echoes its query argument",
		Run: func(_ context.Context, args map[string]any) (string, error) {
			q, _ := args["query"].(string)
			return strings.ToUpper(q), nil
		},
	}
}

// =============================================================================
// 👥 团队工厂
// =============================================================================

// SampleCrew 返回两名成员（researcher、writer）和三项任务的顺序团队
func SampleCrew(shareCrew bool) *crew.Crew {
	c := crew.New(crew.Config{
		Name:      "sample",
		Process:   crew.ProcessSequential,
		Memory:    true,
		ShareCrew: shareCrew,
	})

	researcher := c.AddAgent(&crew.Agent{
		Role:            "researcher",
		Goal:            "find sources",
		Backstory:       "a careful analyst",
		AllowDelegation: true,
		LLM:             SampleLLM(),
		Tools:           []crew.Tool{EchoTool("Web_Search")},
	})
	writer := c.AddAgent(&crew.Agent{
		Role: "writer",
		Goal: "write the report",
		LLM:  SampleLLM(),
	})

	research := c.AddTask(&crew.Task{
		Description:    "research the topic",
		ExpectedOutput: "a list of sources",
		Agent:          researcher,
	})
	outline := c.AddTask(&crew.Task{
		Description:    "outline the report",
		ExpectedOutput: "an outline",
		Agent:          writer,
		Context:        []*crew.Task{research},
	})
	c.AddTask(&crew.Task{
		Description:    "write the report",
		ExpectedOutput: "a finished report",
		Agent:          writer,
		AsyncExecution: true,
		Context:        []*crew.Task{research, outline},
		Tools:          []crew.Tool{EchoTool("Spell_Check")},
	})
	return c
}
