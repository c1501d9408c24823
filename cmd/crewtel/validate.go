package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaSui01/crewtel/crew"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var crewPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config and, if given, a crew definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config OK: mode=%s server=%s protocol=%s\n",
				cfg.Monitoring.Type, cfg.Monitoring.Endpoint(), cfg.Monitoring.Protocol)

			if crewPath == "" {
				return nil
			}
			c, err := buildCrew(crewPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "crew OK: name=%s process=%s agents=%d tasks=%d share_crew=%t\n",
				c.Name, c.Process, len(c.Agents), len(c.Tasks), c.ShareCrew)
			return nil
		},
	}
	cmd.Flags().StringVar(&crewPath, "crew", "", "Path to crew definition YAML")
	return cmd
}

// buildCrew 加载团队定义并绑定内置工具
func buildCrew(path string) (*crew.Crew, error) {
	def, err := crew.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	c, err := def.Build(builtinTools())
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid crew %q: %w", path, err)
	}
	return c, nil
}
