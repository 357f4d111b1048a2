package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CartApiTelemetry provides telemetry for the cart persistence endpoints
type CartApiTelemetry struct {
	meter metric.Meter

	requestCounter    metric.Int64Counter
	errorCounter      metric.Int64Counter
	durationHistogram metric.Float64Histogram

	cartReadCounter         metric.Int64Counter
	cartWriteCounter        metric.Int64Counter
	cacheUnavailableCounter metric.Int64Counter
}

// RequestMetrics contains the telemetry data for a request
type RequestMetrics struct {
	Method       string
	Endpoint     string
	StatusCode   int
	Duration     time.Duration
	ErrorMessage string
}

// NewCartApiTelemetry creates a new instance of CartApiTelemetry
func NewCartApiTelemetry() *CartApiTelemetry {
	return &CartApiTelemetry{}
}

// InitializeTelemetry sets up all the telemetry instruments for the cart API
func (t *CartApiTelemetry) InitializeTelemetry(ctx context.Context) error {
	slog.Info("Initializing cart API telemetry")

	t.meter = otel.Meter("cart-sync-api")

	var err error

	t.requestCounter, err = t.meter.Int64Counter(
		"cart_api_requests_total",
		metric.WithDescription("Total number of API requests to cart endpoints"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}

	t.errorCounter, err = t.meter.Int64Counter(
		"cart_api_errors_total",
		metric.WithDescription("Total number of API errors from cart endpoints"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create error counter: %w", err)
	}

	t.durationHistogram, err = t.meter.Float64Histogram(
		"cart_api_request_duration_seconds",
		metric.WithDescription("Duration of API requests to cart endpoints"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	t.cartReadCounter, err = t.meter.Int64Counter(
		"cart_reads_total",
		metric.WithDescription("Total number of cached carts read"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cart read counter: %w", err)
	}

	t.cartWriteCounter, err = t.meter.Int64Counter(
		"cart_writes_total",
		metric.WithDescription("Total number of cart snapshots written"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cart write counter: %w", err)
	}

	t.cacheUnavailableCounter, err = t.meter.Int64Counter(
		"cart_cache_unavailable_total",
		metric.WithDescription("Total number of cart cache unavailability events"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cache unavailable counter: %w", err)
	}

	slog.Info("Cart API telemetry initialized")
	return nil
}

// RegisterRequestReceived records a successful request
func (t *CartApiTelemetry) RegisterRequestReceived(ctx context.Context, m RequestMetrics) {
	if t.requestCounter == nil {
		return
	}
	t.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", m.Method),
		attribute.String("endpoint", m.Endpoint),
		attribute.Int("status_code", m.StatusCode),
	))
}

// RegisterRequestError records a failed request
func (t *CartApiTelemetry) RegisterRequestError(ctx context.Context, m RequestMetrics) {
	if t.errorCounter == nil {
		return
	}
	t.errorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", m.Method),
		attribute.String("endpoint", m.Endpoint),
		attribute.Int("status_code", m.StatusCode),
		attribute.String("error", m.ErrorMessage),
	))
}

// RegisterRequestDuration records the duration of a request
func (t *CartApiTelemetry) RegisterRequestDuration(ctx context.Context, m RequestMetrics) {
	if t.durationHistogram == nil {
		return
	}
	t.durationHistogram.Record(ctx, m.Duration.Seconds(), metric.WithAttributes(
		attribute.String("method", m.Method),
		attribute.String("endpoint", m.Endpoint),
	))
}

// RegisterCartRead records a successful cached cart read
func (t *CartApiTelemetry) RegisterCartRead(ctx context.Context, itemCount int) {
	if t.cartReadCounter == nil {
		return
	}
	t.cartReadCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("item_count", itemCount),
	))
}

// RegisterCartWrite records a successful cart snapshot write
func (t *CartApiTelemetry) RegisterCartWrite(ctx context.Context, itemCount int) {
	if t.cartWriteCounter == nil {
		return
	}
	t.cartWriteCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("item_count", itemCount),
	))
}

// RegisterCacheUnavailable records a cart cache unavailability event
func (t *CartApiTelemetry) RegisterCacheUnavailable(ctx context.Context) {
	if t.cacheUnavailableCounter == nil {
		return
	}
	t.cacheUnavailableCounter.Add(ctx, 1)
}
