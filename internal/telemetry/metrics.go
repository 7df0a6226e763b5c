package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/boxoffice"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Refresh metrics
	RefreshTotal        metric.Int64Counter
	RefreshErrorsTotal  metric.Int64Counter
	RefreshDuration     metric.Float64Histogram
	RefreshWaitersTotal metric.Int64Counter

	// Request metrics
	ReplaysTotal metric.Int64Counter

	// Session metrics
	SessionExpiredTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments bind to the global meter provider at first use, so call
// InitTelemetry before the first request when exporting.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = newMetrics(otel.GetMeterProvider())
	})
	return metrics
}

func newMetrics(provider metric.MeterProvider) *Metrics {
	meter := provider.Meter(meterName)

	m := &Metrics{}

	m.RefreshTotal, _ = meter.Int64Counter(
		"boxoffice.gateway.refresh.total",
		metric.WithDescription("Total number of token refresh calls"),
		metric.WithUnit("{call}"),
	)

	m.RefreshErrorsTotal, _ = meter.Int64Counter(
		"boxoffice.gateway.refresh.errors.total",
		metric.WithDescription("Total number of failed token refresh calls"),
		metric.WithUnit("{error}"),
	)

	m.RefreshDuration, _ = meter.Float64Histogram(
		"boxoffice.gateway.refresh.duration",
		metric.WithDescription("Duration of token refresh calls"),
		metric.WithUnit("ms"),
	)

	m.RefreshWaitersTotal, _ = meter.Int64Counter(
		"boxoffice.gateway.refresh.waiters.total",
		metric.WithDescription("Total number of requests parked behind an in-flight refresh"),
		metric.WithUnit("{request}"),
	)

	m.ReplaysTotal, _ = meter.Int64Counter(
		"boxoffice.gateway.replays.total",
		metric.WithDescription("Total number of requests replayed with a refreshed token"),
		metric.WithUnit("{request}"),
	)

	m.SessionExpiredTotal, _ = meter.Int64Counter(
		"boxoffice.session.expired.total",
		metric.WithDescription("Total number of sessions dropped as expired"),
		metric.WithUnit("{session}"),
	)

	return m
}
