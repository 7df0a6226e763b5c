package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		assert.Equal(t, meterName, sm.Scope.Name)
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m := newMetrics(provider)
	ctx := context.Background()

	m.RefreshTotal.Add(ctx, 2)
	m.RefreshWaitersTotal.Add(ctx, 4)
	m.ReplaysTotal.Add(ctx, 5)
	m.SessionExpiredTotal.Add(ctx, 1)
	m.RefreshDuration.Record(ctx, 12.5)

	got := collect(t, reader)

	counters := map[string]int64{
		"boxoffice.gateway.refresh.total":         2,
		"boxoffice.gateway.refresh.waiters.total": 4,
		"boxoffice.gateway.replays.total":         5,
		"boxoffice.session.expired.total":         1,
	}
	for name, want := range counters {
		sum, ok := got[name].(metricdata.Sum[int64])
		require.True(t, ok, name)
		require.Len(t, sum.DataPoints, 1, name)
		assert.Equal(t, want, sum.DataPoints[0].Value, name)
	}

	hist, ok := got["boxoffice.gateway.refresh.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, GetMetrics())
	assert.NotNil(t, m.RefreshErrorsTotal)
}
