package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestRecorder(t *testing.T) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r, err := NewRecorder(provider.Meter("test"))
	require.NoError(t, err)
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestRecorder_OrderPlaced(t *testing.T) {
	r, reader := newTestRecorder(t)
	ctx := context.Background()

	r.OrderPlaced(ctx, decimal.RequireFromString("64.80"), "credit_card")
	r.OrderPlaced(ctx, decimal.RequireFromString("10.20"), "credit_card")

	got := collect(t, reader)

	placed, ok := got["orders_placed_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, placed.DataPoints, 1)
	assert.Equal(t, int64(2), placed.DataPoints[0].Value)

	revenue, ok := got["order_revenue_total"].(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, revenue.DataPoints, 1)
	assert.InDelta(t, 75.0, revenue.DataPoints[0].Value, 0.0001)
}

func TestRecorder_FailuresAndCart(t *testing.T) {
	r, reader := newTestRecorder(t)
	ctx := context.Background()

	r.OrderPlacementFailed(ctx, "insufficient_stock")
	r.OrderPlacementFailed(ctx, "validation")
	r.CartMutated(ctx, "add")
	r.OrderUpdated(ctx, "shipped")

	got := collect(t, reader)

	failures, ok := got["order_placement_failures_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, failures.DataPoints, 2)

	cart, ok := got["cart_mutations_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, cart.DataPoints, 1)
	v, _ := cart.DataPoints[0].Attributes.Value("action")
	assert.Equal(t, "add", v.AsString())

	_, ok = got["order_updates_total"].(metricdata.Sum[int64])
	assert.True(t, ok)
}

func TestRecorder_HTTPMiddleware(t *testing.T) {
	r, reader := newTestRecorder(t)

	e := echo.New()
	e.Use(r.HTTPMiddleware())
	e.GET("/products/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/1", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/2", nil))

	got := collect(t, reader)

	reqs, ok := got["http_server_requests_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, reqs.DataPoints, 1)
	assert.Equal(t, int64(2), reqs.DataPoints[0].Value)
	route, _ := reqs.DataPoints[0].Attributes.Value("http.route")
	assert.Equal(t, "/products/:id", route.AsString())

	dur, ok := got["http_server_request_duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, dur.DataPoints, 1)
	assert.Equal(t, uint64(2), dur.DataPoints[0].Count)
}

func TestNewNopRecorder(t *testing.T) {
	r := NewNopRecorder()
	require.NotNil(t, r)
	assert.NotPanics(t, func() {
		r.OrderPlaced(context.Background(), decimal.NewFromInt(1), "paypal")
		r.CartMutated(context.Background(), "remove")
	})
}

func TestNewProvider_WithoutEndpoint(t *testing.T) {
	mp, err := NewProvider(context.Background(), ProviderConfig{ServiceName: "storefront"})
	require.NoError(t, err)
	assert.NoError(t, mp.Shutdown(context.Background()))
}
