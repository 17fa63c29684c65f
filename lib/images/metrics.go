package images

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records image pull activity
type Metrics struct {
	pullsTotal   metric.Int64Counter
	pullDuration metric.Float64Histogram
	imagesFound  metric.Int64Histogram
}

// NewMetrics creates the image metric instruments
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	pullsTotal, err := meter.Int64Counter(
		"happypath_image_pulls_total",
		metric.WithDescription("Total number of image pulls"),
	)
	if err != nil {
		return nil, err
	}

	pullDuration, err := meter.Float64Histogram(
		"happypath_image_pull_duration_seconds",
		metric.WithDescription("Time to pull one image"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	imagesFound, err := meter.Int64Histogram(
		"happypath_images_discovered",
		metric.WithDescription("Number of images discovered per descriptor"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pullsTotal:   pullsTotal,
		pullDuration: pullDuration,
		imagesFound:  imagesFound,
	}, nil
}

// RecordPull records one finished pull
func (m *Metrics) RecordPull(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.pullsTotal.Add(ctx, 1, attrs)
	m.pullDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDiscovery records how many images a descriptor yielded
func (m *Metrics) RecordDiscovery(ctx context.Context, count int) {
	m.imagesFound.Record(ctx, int64(count))
}
