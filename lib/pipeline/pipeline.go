// Package pipeline runs the happy-path stages in order: clone the test
// sources, pre-pull workspace images, start the workspace, then launch the
// e2e test container. The first failing stage aborts the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nrednav/cuid2"
	"github.com/onkernel/happypath/lib/images"
	"github.com/onkernel/happypath/lib/logger"
	hpotel "github.com/onkernel/happypath/lib/otel"
	"github.com/onkernel/happypath/lib/workspaces"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Cloner fetches the test sources
type Cloner interface {
	Clone(ctx context.Context) error
}

// TestRunner runs the e2e suite
type TestRunner interface {
	Run(ctx context.Context) error
}

// Pipeline wires the stages of a happy-path run
type Pipeline struct {
	cloner     Cloner
	images     images.Manager
	workspaces workspaces.Controller
	tests      TestRunner
	log        *slog.Logger
	tracer     trace.Tracer
	metrics    *hpotel.PipelineMetrics
	newRunID   func() string
}

type stage struct {
	name    string
	message string
	run     func(ctx context.Context) error
}

// New creates a Pipeline. tracer and meter may be nil.
func New(
	cloner Cloner,
	imageManager images.Manager,
	controller workspaces.Controller,
	tests TestRunner,
	log *slog.Logger,
	tracer trace.Tracer,
	meter metric.Meter,
) (*Pipeline, error) {
	if log == nil {
		log = slog.Default()
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(hpotel.InstrumentationName)
	}

	p := &Pipeline{
		cloner:     cloner,
		images:     imageManager,
		workspaces: controller,
		tests:      tests,
		log:        log,
		tracer:     tracer,
		newRunID:   cuid2.Generate,
	}

	if meter != nil {
		metrics, err := hpotel.NewPipelineMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		p.metrics = metrics
	}

	return p, nil
}

// Execute runs every stage in order and stops at the first failure
func (p *Pipeline) Execute(ctx context.Context) error {
	runID := p.newRunID()
	log := p.log.With("run_id", runID)
	ctx = logger.AddToContext(ctx, log)

	ctx, span := p.tracer.Start(ctx, "happypath.run", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	start := time.Now()
	err := p.runStages(ctx, []stage{
		{name: "clone", message: "Eclipse Che [clone]...", run: p.cloner.Clone},
		{name: "images", message: "Images [pull]...", run: p.images.Pull},
		{name: "workspace", message: "Workspace [start]...", run: p.startWorkspace},
		{name: "e2e", message: "Happy Path [start]...", run: p.tests.Run},
	})

	status := "success"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if p.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("status", status))
		p.metrics.RunsTotal.Add(ctx, 1, attrs)
		p.metrics.RunDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
	return err
}

func (p *Pipeline) runStages(ctx context.Context, stages []stage) error {
	log := logger.FromContext(ctx)
	for _, s := range stages {
		log.InfoContext(ctx, s.message)
		if err := p.runStage(ctx, s); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, s stage) error {
	ctx, span := p.tracer.Start(ctx, "happypath."+s.name)
	defer span.End()

	start := time.Now()
	err := s.run(ctx)

	status := "success"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if p.metrics != nil {
		p.metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", s.name), attribute.String("status", status)))
	}
	return err
}

func (p *Pipeline) startWorkspace(ctx context.Context) error {
	url, err := p.workspaces.Start(ctx)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).InfoContext(ctx, "workspace running", "url", url)
	return nil
}
