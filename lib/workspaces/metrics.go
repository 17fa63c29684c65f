package workspaces

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments for workspace lifecycle operations
type Metrics struct {
	startDuration metric.Float64Histogram
	pollAttempts  metric.Int64Counter
	stopsTotal    metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	startDuration, err := meter.Float64Histogram(
		"happypath_workspace_start_duration_seconds",
		metric.WithDescription("Time from workspace creation to a running pod"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pollAttempts, err := meter.Int64Counter(
		"happypath_workspace_poll_attempts_total",
		metric.WithDescription("Total number of running-pod queries"),
	)
	if err != nil {
		return nil, err
	}

	stopsTotal, err := meter.Int64Counter(
		"happypath_workspace_stops_total",
		metric.WithDescription("Total number of workspace stop requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		startDuration: startDuration,
		pollAttempts:  pollAttempts,
		stopsTotal:    stopsTotal,
	}, nil
}

func (m *Metrics) recordStart(ctx context.Context, status string, start time.Time) {
	m.startDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}
