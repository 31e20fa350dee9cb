package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Recorderは業務メトリクスとHTTPメトリクスをまとめる
type Recorder struct {
	ordersPlaced      metric.Int64Counter
	orderRevenue      metric.Float64Counter
	placementFailures metric.Int64Counter
	cartMutations     metric.Int64Counter
	orderUpdates      metric.Int64Counter

	httpRequests metric.Int64Counter
	httpDuration metric.Float64Histogram
}

func NewRecorder(meter metric.Meter) (*Recorder, error) {
	r := &Recorder{}
	var err error

	if r.ordersPlaced, err = meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Total number of orders placed"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("orders_placed_total: %w", err)
	}

	if r.orderRevenue, err = meter.Float64Counter(
		"order_revenue_total",
		metric.WithDescription("Sum of placed order totals"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("order_revenue_total: %w", err)
	}

	if r.placementFailures, err = meter.Int64Counter(
		"order_placement_failures_total",
		metric.WithDescription("Order placements that did not complete, by reason"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("order_placement_failures_total: %w", err)
	}

	if r.cartMutations, err = meter.Int64Counter(
		"cart_mutations_total",
		metric.WithDescription("Cart add/update/remove operations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("cart_mutations_total: %w", err)
	}

	if r.orderUpdates, err = meter.Int64Counter(
		"order_updates_total",
		metric.WithDescription("Admin order updates, by resulting order status"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("order_updates_total: %w", err)
	}

	if r.httpRequests, err = meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("http_server_requests_total: %w", err)
	}

	if r.httpDuration, err = meter.Float64Histogram(
		"http_server_request_duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	); err != nil {
		return nil, fmt.Errorf("http_server_request_duration: %w", err)
	}

	return r, nil
}

// NewNopRecorderは何も記録しない
func NewNopRecorder() *Recorder {
	r, _ := NewRecorder(noop.NewMeterProvider().Meter("nop"))
	return r
}

func (r *Recorder) OrderPlaced(ctx context.Context, total decimal.Decimal, paymentMethod string) {
	attrs := metric.WithAttributes(attribute.String("payment_method", paymentMethod))
	r.ordersPlaced.Add(ctx, 1, attrs)
	r.orderRevenue.Add(ctx, total.InexactFloat64(), attrs)
}

func (r *Recorder) OrderPlacementFailed(ctx context.Context, reason string) {
	r.placementFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (r *Recorder) CartMutated(ctx context.Context, action string) {
	r.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func (r *Recorder) OrderUpdated(ctx context.Context, status string) {
	r.orderUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("order_status", status)))
}

// HTTPMiddlewareはルート単位でリクエスト数と処理時間を記録する
func (r *Recorder) HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			attrs := metric.WithAttributes(
				attribute.String("http.method", c.Request().Method),
				attribute.String("http.route", c.Path()),
				attribute.String("http.status_code", strconv.Itoa(status)),
			)
			ctx := c.Request().Context()
			r.httpRequests.Add(ctx, 1, attrs)
			r.httpDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
			return err
		}
	}
}
