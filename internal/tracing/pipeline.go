// =============================================================================
// crewtel OpenTelemetry export pipeline
// =============================================================================
// Builds the TracerProvider that backs server-mode telemetry. Nothing connects
// at construction time; exporters dial lazily and batch in the background.
// =============================================================================

package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/crewtel/config"
)

// TracesPath is appended to the configured server for OTLP/HTTP export.
const TracesPath = "/v1/traces"

// Pipeline holds the SDK providers built for one monitoring configuration.
type Pipeline struct {
	tp       *sdktrace.TracerProvider
	mp       *sdkmetric.MeterProvider
	endpoint string
	logger   *zap.Logger
	register sync.Once
}

// New builds the export pipeline for cfg. Errors are returned for
// malformed endpoints or exporter construction failures.
func New(ctx context.Context, cfg config.MonitoringConfig, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	protocol, err := config.ParseProtocol(string(cfg.Protocol))
	if err != nil {
		return nil, err
	}
	timeout := cfg.ExportTimeout
	if timeout <= 0 {
		timeout = config.DefaultExportTimeout
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "crewtel"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(Version()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	target, err := ParseEndpoint(cfg.Endpoint())
	if err != nil {
		return nil, err
	}

	var exporter sdktrace.SpanExporter
	var endpoint string
	switch protocol {
	case config.ProtocolHTTP:
		endpoint = target.TracesURL()
		exporter, err = otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(endpoint),
			otlptracehttp.WithTimeout(timeout),
		)
	case config.ProtocolGRPC:
		endpoint = target.HostPort()
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithTimeout(timeout),
		}
		if !target.Secure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case config.ProtocolStdout:
		endpoint = "stdout"
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(timeout)),
		sdktrace.WithResource(res),
	)

	p := &Pipeline{
		tp:       tp,
		endpoint: endpoint,
		logger:   logger.With(zap.String("component", "tracing")),
	}

	if cfg.Metrics && protocol == config.ProtocolGRPC {
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(target.HostPort()),
			otlpmetricgrpc.WithTimeout(timeout),
		}
		if !target.Secure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		metricExporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}
		p.mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
			sdkmetric.WithResource(res),
		)
	}

	p.logger.Debug("trace pipeline built",
		zap.String("endpoint", endpoint),
		zap.String("protocol", string(protocol)),
		zap.Duration("timeout", timeout),
		zap.Bool("metrics", p.mp != nil),
	)
	return p, nil
}

// Tracer returns a tracer from the pipeline's own provider.
func (p *Pipeline) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Meter returns a meter, or nil when metric export is disabled.
func (p *Pipeline) Meter(name string) metric.Meter {
	if p.mp == nil {
		return nil
	}
	return p.mp.Meter(name)
}

// Endpoint is the resolved export target.
func (p *Pipeline) Endpoint() string {
	return p.endpoint
}

// Register installs the providers globally. Only the first call has effect.
func (p *Pipeline) Register() error {
	p.register.Do(func() {
		otel.SetTracerProvider(p.tp)
		if p.mp != nil {
			otel.SetMeterProvider(p.mp)
		}
	})
	return nil
}

// Shutdown flushes pending spans/metrics and closes exporters.
// Safe to call on a nil Pipeline.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.mp != nil {
		if err := p.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Target is a parsed MONITORING_SERVER value.
type Target struct {
	Scheme string
	Host   string
	Path   string
	Secure bool
}

// ParseEndpoint accepts a bare host ("localhost", "otel:4318") or a URL.
// Bare hosts are treated as plain http.
func ParseEndpoint(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("empty monitoring server")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse monitoring server: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return Target{}, fmt.Errorf("unsupported monitoring server scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("monitoring server %q has no host", raw)
	}
	return Target{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   strings.TrimRight(u.Path, "/"),
		Secure: u.Scheme == "https",
	}, nil
}

// TracesURL is <server>/v1/traces.
func (t Target) TracesURL() string {
	return t.Scheme + "://" + t.Host + t.Path + TracesPath
}

// HostPort is the gRPC dial target.
func (t Target) HostPort() string {
	return t.Host
}

// Version extracts the module version from Go build info.
// Falls back to "dev" if unavailable.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
