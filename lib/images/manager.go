// Package images prepares the container images a workspace needs: it points
// docker at the cluster runtime, discovers the images referenced by the
// workspace descriptor and pulls them ahead of the workspace start.
package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/onkernel/happypath/lib/devfile"
	"github.com/onkernel/happypath/lib/logger"
	"github.com/onkernel/happypath/lib/process"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Manager handles the image pre-pull stage
type Manager interface {
	// Pull runs the whole stage: docker-env setup, discovery, pulls
	Pull(ctx context.Context) error

	// SetupEnv returns the docker environment exported by the runtime helper
	SetupEnv(ctx context.Context) (DockerEnv, error)

	// Filter drops images carrying the local-only prefix
	Filter(images []string) []string

	// PullAll pulls every non-local image, failing on the first error
	PullAll(ctx context.Context, env DockerEnv, images []string) error
}

// Config holds configuration for the image manager
type Config struct {
	// DescriptorLocator is the workspace descriptor URL or path
	DescriptorLocator string

	// LocalPrefix marks images that are built locally and never pulled
	LocalPrefix string

	// MaxConcurrentPulls bounds parallel docker pull processes
	MaxConcurrentPulls int

	// DockerEnvCommand is the helper queried with "docker-env"; empty skips it
	DockerEnvCommand string

	// Preflight checks every image against its registry before pulling
	Preflight bool
}

// DefaultConfig returns the default image manager configuration
func DefaultConfig() Config {
	return Config{
		LocalPrefix:        "local-",
		MaxConcurrentPulls: 4,
		DockerEnvCommand:   "minikube",
	}
}

type manager struct {
	config     Config
	runner     process.Runner
	discoverer devfile.Discoverer
	checker    Checker
	output     io.Writer
	metrics    *Metrics
}

// NewManager creates a new image manager. checker may be nil when preflight
// is disabled; meter may be nil to skip metrics.
func NewManager(
	config Config,
	runner process.Runner,
	discoverer devfile.Discoverer,
	checker Checker,
	meter metric.Meter,
) (Manager, error) {
	if config.MaxConcurrentPulls < 1 {
		config.MaxConcurrentPulls = 1
	}
	if config.Preflight && checker == nil {
		return nil, fmt.Errorf("preflight enabled without a registry checker")
	}

	m := &manager{
		config:     config,
		runner:     runner,
		discoverer: discoverer,
		checker:    checker,
		output:     os.Stdout,
	}

	if meter != nil {
		metrics, err := NewMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		m.metrics = metrics
	}

	return m, nil
}

func (m *manager) Pull(ctx context.Context) error {
	// The docker env must be fully known before the first pull is issued.
	env, err := m.SetupEnv(ctx)
	if err != nil {
		return err
	}

	found, err := m.discoverer.Discover(ctx, m.config.DescriptorLocator)
	if err != nil {
		return fmt.Errorf("discover images in %s: %w", m.config.DescriptorLocator, err)
	}
	if m.metrics != nil {
		m.metrics.RecordDiscovery(ctx, len(found))
	}

	images := m.Filter(found)
	if m.config.Preflight {
		if err := m.preflight(ctx, images); err != nil {
			return err
		}
	}

	return m.PullAll(ctx, env, images)
}

func (m *manager) Filter(images []string) []string {
	if m.config.LocalPrefix == "" {
		return images
	}
	return lo.Reject(images, func(image string, _ int) bool {
		return strings.HasPrefix(image, m.config.LocalPrefix)
	})
}

func (m *manager) PullAll(ctx context.Context, env DockerEnv, images []string) error {
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(m.config.MaxConcurrentPulls)

	for _, image := range m.Filter(images) {
		grp.Go(func() error {
			return m.pullImage(gctx, env, image)
		})
	}

	return grp.Wait()
}

func (m *manager) pullImage(ctx context.Context, env DockerEnv, image string) error {
	// A sibling pull already failed; the aggregate result is decided.
	if err := ctx.Err(); err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.InfoContext(ctx, fmt.Sprintf("Pulling image %s...", image))

	start := time.Now()
	_, err := m.runner.Run(ctx, "docker", []string{"pull", image}, process.Options{
		Env:    env,
		Stdout: m.output,
	})
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordPull(ctx, "failed", time.Since(start))
		}
		return fmt.Errorf("pull image %s: %w", image, err)
	}

	if m.metrics != nil {
		m.metrics.RecordPull(ctx, "success", time.Since(start))
	}
	log.InfoContext(ctx, fmt.Sprintf("Pulling image %s done", image))
	return nil
}

func (m *manager) preflight(ctx context.Context, images []string) error {
	log := logger.FromContext(ctx)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(m.config.MaxConcurrentPulls)

	for _, image := range images {
		grp.Go(func() error {
			digest, err := m.checker.Check(gctx, image)
			if err != nil {
				return err
			}
			log.DebugContext(gctx, "image available", "image", image, "digest", digest)
			return nil
		})
	}

	return grp.Wait()
}
