package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/crewtel/crew"
	"github.com/BaSui01/crewtel/internal/server"
	"github.com/BaSui01/crewtel/runner"
	"github.com/BaSui01/crewtel/telemetry"
)

type emitOptions struct {
	crewPath    string
	inputs      map[string]string
	metricsAddr string
	linger      time.Duration
}

func newEmitCmd(root *rootOptions) *cobra.Command {
	opts := &emitOptions{}

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Dry-run a crew definition and report its telemetry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEmit(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.crewPath, "crew", "", "Path to crew definition YAML")
	cmd.Flags().StringToStringVarP(&opts.inputs, "input", "i", nil, "Kickoff input as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while emitting")
	cmd.Flags().DurationVar(&opts.linger, "linger", 0, "Keep the metrics endpoint up this long after the run")
	_ = cmd.MarkFlagRequired("crew")
	return cmd
}

func runEmit(cmd *cobra.Command, root *rootOptions, opts *emitOptions) error {
	cfg, err := loadConfig(root.configPath)
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	c, err := buildCrew(opts.crewPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := telemetry.NewMetrics("crewtel", reg)

	reporter, err := telemetry.New(ctx, cfg.Monitoring,
		telemetry.WithLogger(logger),
		telemetry.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("create telemetry reporter: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Monitoring.ExportTimeout)
		defer cancel()
		if err := reporter.Shutdown(shutdownCtx); err != nil {
			logger.Debug("telemetry shutdown", zap.Error(err))
		}
	}()
	reporter.Initialize()

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if opts.metricsAddr != "" {
		scfg := server.DefaultConfig()
		scfg.Addr = opts.metricsAddr
		srv := server.NewManager(reg, scfg, logger)
		g.Go(func() error { return srv.Run(serveCtx) })
	}

	g.Go(func() error {
		defer stopServing()

		r, err := runner.NewRunner(c, reporter, dryRunExecutor(), runner.WithLogger(logger))
		if err != nil {
			return err
		}
		output, err := r.Kickoff(gctx, toInputs(opts.inputs))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), output)

		if opts.metricsAddr != "" && opts.linger > 0 {
			select {
			case <-time.After(opts.linger):
			case <-gctx.Done():
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func toInputs(raw map[string]string) map[string]any {
	inputs := make(map[string]any, len(raw))
	for k, v := range raw {
		inputs[k] = v
	}
	return inputs
}

// =============================================================================
// 🛠️ 演练执行器与内置工具
// =============================================================================

// dryRunExecutor 对每个可用工具调用一次，然后返回任务描述
func dryRunExecutor() runner.Executor {
	return runner.ExecutorFunc(func(ctx context.Context, a runner.Assignment) (string, error) {
		tools := append([]crew.Tool{}, a.Task.Tools...)
		tools = append(tools, a.Agent.Tools...)

		var notes []string
		for _, tool := range tools {
			out, err := a.Tools.Use(ctx, tool.Name, map[string]any{"query": a.Task.Description})
			if err != nil {
				notes = append(notes, err.Error())
				continue
			}
			notes = append(notes, out)
		}

		result := fmt.Sprintf("%s: %s", a.Agent.Role, a.Task.Description)
		if len(notes) > 0 {
			result += " [" + strings.Join(notes, "; ") + "]"
		}
		return result, nil
	})
}

func builtinTools() map[string]crew.Tool {
	return map[string]crew.Tool{
		"echo": {
			Name:        "echo",
			Description: "Returns its query unchanged",
			Run: func(_ context.Context, args map[string]any) (string, error) {
				return fmt.Sprint(args["query"]), nil
			},
		},
		"word_count": {
			Name:        "word_count",
			Description: "Counts the words in its query",
			Run: func(_ context.Context, args map[string]any) (string, error) {
				return fmt.Sprintf("%d words", len(strings.Fields(fmt.Sprint(args["query"])))), nil
			},
		},
	}
}
