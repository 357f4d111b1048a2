package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Telemetry holds the OpenTelemetry metrics wiring
type Telemetry struct {
	server   *http.Server          // If type of metrics collection == "scraper".
	Provider *metric.MeterProvider // If not scraper use gRPC.
	meter    api.Meter
	ctx      *context.Context
}

var once sync.Once

// InitMetrics initializes the metrics exporter selected by the
// METRICS_EXPORTER environment variable: "scraper" serves a prometheus
// scrape page, anything else exports over OTLP gRPC.
func (t *Telemetry) InitMetrics(meterName string, ctx *context.Context) *Telemetry {
	metricsExporter := getEnvWithDefault("METRICS_EXPORTER", "")
	t.ctx = ctx

	once.Do(func() {
		if metricsExporter == "scraper" {
			slog.Info("Starting metrics with scraper exporter")
			t.initScrapeMetrics(meterName)
		} else {
			slog.Info("Starting metrics with grpc exporter")
			t.initGRPCMetrics(meterName)
		}
	})
	return &Telemetry{
		server:   t.server,
		Provider: t.Provider,
		meter:    t.meter,
		ctx:      t.ctx,
	}
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (t *Telemetry) Close() {
	if t.Provider != nil {
		t.Provider.ForceFlush(*t.ctx)
	}
}

// initGRPCMetrics exports metrics over OTLP gRPC. The endpoint comes
// from OTEL_EXPORTER_OTLP_METRICS_ENDPOINT, defaulting to localhost:4317.
func (t *Telemetry) initGRPCMetrics(meterName string) {
	exporter, err := otlpmetricgrpc.New(*t.ctx)
	if err != nil {
		slog.Error("Creating GRPC exporter", "error", err)
		return
	}

	t.Provider = metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(exporter)))
	otel.SetMeterProvider(t.Provider)
	t.meter = t.Provider.Meter(meterName)
}

// initScrapeMetrics serves prometheus metrics on METRICS_PORT (default 9080)
func (t *Telemetry) initScrapeMetrics(meterName string) {
	exporter, err := prometheus.New()
	if err != nil {
		slog.Error("Creating prometheus scrape exporter", "error", err)
		return
	}

	t.Provider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(t.Provider)
	t.meter = t.Provider.Meter(meterName)

	metricsPort := getEnvWithDefault("METRICS_PORT", "9080")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	t.server = &http.Server{
		Addr:    ":" + metricsPort,
		Handler: mux,
	}

	go func() {
		slog.Info("Serving metrics", "address", fmt.Sprintf("http://localhost:%s/metrics", metricsPort))
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
}
