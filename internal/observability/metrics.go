// Package observability exports worker metrics over OTLP.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config holds metrics export configuration.
type Config struct {
	// Enabled turns OTLP export on. When false, metrics go to the no-op
	// global provider.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Interval is the export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Interval == 0 {
		c.Interval = 30 * time.Second
	}
}

// Init installs a periodic OTLP meter provider as the global provider and
// returns its shutdown function. With Enabled false it is a no-op.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Interval))),
	)
	otel.SetMeterProvider(provider)
	return provider.Shutdown, nil
}

// JobMetrics records worker job outcomes.
type JobMetrics struct {
	processed metric.Int64Counter
	failed    metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewJobMetrics creates the worker's job instruments on the global meter.
func NewJobMetrics() (*JobMetrics, error) {
	meter := otel.Meter("scribeq.worker")

	processed, err := meter.Int64Counter("jobs.processed",
		metric.WithDescription("Jobs completed successfully"))
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("jobs.failed",
		metric.WithDescription("Jobs that reached the failed state"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("jobs.duration",
		metric.WithDescription("Job processing duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &JobMetrics{processed: processed, failed: failed, duration: duration}, nil
}

// RecordFinished records a successful job.
func (m *JobMetrics) RecordFinished(ctx context.Context, engine string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("engine", engine))
	m.processed.Add(ctx, 1, attrs)
	m.duration.Record(ctx, d.Seconds(), attrs)
}

// RecordFailed records a failed job with its error code.
func (m *JobMetrics) RecordFailed(ctx context.Context, engine, code string) {
	m.failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("code", code),
	))
}
