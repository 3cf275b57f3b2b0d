package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/jask/releasetour/internal/config"
	"github.com/jask/releasetour/internal/logger"
)

const serviceName = "releasetour"

// Shutdown flushes pending spans and releases exporter resources.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Init installs the global tracer provider and propagator. With telemetry
// disabled it returns a no-op shutdown and leaves the global no-op provider in place.
func Init(ctx context.Context, log *logger.Logger, cfg config.TelemetryConfig, version string) (Shutdown, error) {
	if !cfg.Enabled {
		return noop, nil
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(strings.TrimSpace(version)),
		),
	)
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	exporter, closeExporter, err := buildExporter(ctx, cfg)
	if err != nil {
		return noop, fmt.Errorf("telemetry: exporter: %w", err)
	}
	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", "endpoint", cfg.Endpoint, "file", cfg.File, "ratio", ratio)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), closeExporter())
	}, nil
}

func buildExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, func() error, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		var opt otlptracehttp.Option
		if strings.Contains(endpoint, "://") {
			opt = otlptracehttp.WithEndpointURL(endpoint)
		} else {
			opt = otlptracehttp.WithEndpoint(endpoint)
		}
		exp, err := otlptracehttp.New(ctx, opt)
		return exp, func() error { return nil }, err
	}

	// stdout belongs to the terminal UI, so the stdout exporter writes to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return exp, f.Close, nil
}
