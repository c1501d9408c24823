package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/crewtel/config"
	"github.com/BaSui01/crewtel/internal/tracing"
	"github.com/BaSui01/crewtel/logging"
)

// TracePipeline is the trace-export collaborator used by RemoteTraceStrategy.
type TracePipeline interface {
	Tracer(name string) trace.Tracer
	// Meter may return nil when metric export is disabled.
	Meter(name string) metric.Meter
	// Register installs the pipeline's providers process-wide.
	Register() error
	Shutdown(ctx context.Context) error
}

// PipelineFactory builds a TracePipeline for a monitoring configuration.
type PipelineFactory func(ctx context.Context, cfg config.MonitoringConfig, logger *zap.Logger) (TracePipeline, error)

// DefaultPipelineFactory exports over OTLP through the OpenTelemetry SDK.
func DefaultPipelineFactory(ctx context.Context, cfg config.MonitoringConfig, logger *zap.Logger) (TracePipeline, error) {
	p, err := tracing.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Option configures an EventReporter or a strategy.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	sink    logging.Sink
	factory PipelineFactory
	metrics *Metrics
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  zap.NewNop(),
		factory: DefaultPipelineFactory,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the diagnostics logger. It never receives event lines.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSink sets the local-mode log destination.
func WithSink(sink logging.Sink) Option {
	return func(o *options) { o.sink = sink }
}

// WithPipelineFactory replaces the server-mode export pipeline.
func WithPipelineFactory(factory PipelineFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithMetrics records event counters on m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
