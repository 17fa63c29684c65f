package providers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/onkernel/happypath/cmd/happypath/config"
	"github.com/onkernel/happypath/lib/actions"
	"github.com/onkernel/happypath/lib/cluster"
	"github.com/onkernel/happypath/lib/devfile"
	"github.com/onkernel/happypath/lib/e2e"
	"github.com/onkernel/happypath/lib/images"
	"github.com/onkernel/happypath/lib/logger"
	"github.com/onkernel/happypath/lib/otel"
	"github.com/onkernel/happypath/lib/pipeline"
	"github.com/onkernel/happypath/lib/process"
	"github.com/onkernel/happypath/lib/repository"
	"github.com/onkernel/happypath/lib/workspaces"
)

// ProvideConfig provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideTelemetry provides the OpenTelemetry providers. The cleanup flushes
// pending exports.
func ProvideTelemetry(ctx context.Context, cfg *config.Config) (*otel.Provider, func(), error) {
	provider, err := otel.Init(ctx, otel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		ServiceName: "happypath",
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush telemetry", "error", err)
		}
	}
	return provider, cleanup, nil
}

// ProvideLogger provides a structured logger, fanned out to the OTel log
// bridge when telemetry export is enabled
func ProvideLogger(cfg *config.Config, telemetry *otel.Provider) *slog.Logger {
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if handler := telemetry.LogHandler(); handler != nil {
		log = slog.New(logger.NewFanout(log.Handler(), handler))
	}
	slog.SetDefault(log)
	return log
}

// ProvideRunner provides the process runner
func ProvideRunner() process.Runner {
	return process.NewRunner()
}

// ProvideDiscoverer provides the devfile image discoverer
func ProvideDiscoverer(cfg *config.Config) devfile.Discoverer {
	src := devfile.NewSource(&http.Client{Timeout: 30 * time.Second})
	return devfile.NewDiscoverer(src, cfg.RegistryURL)
}

// ProvideRegistryChecker provides the image preflight checker
func ProvideRegistryChecker() images.Checker {
	return images.NewRegistryChecker()
}

// ProvideImageManager provides the image manager
func ProvideImageManager(
	cfg *config.Config,
	runner process.Runner,
	discoverer devfile.Discoverer,
	checker images.Checker,
	telemetry *otel.Provider,
) (images.Manager, error) {
	return images.NewManager(images.Config{
		DescriptorLocator:  cfg.DescriptorLocator,
		LocalPrefix:        cfg.LocalPrefix,
		MaxConcurrentPulls: cfg.MaxConcurrentPulls,
		DockerEnvCommand:   cfg.DockerEnvCommand,
		Preflight:          cfg.PreflightImages,
	}, runner, discoverer, checker, telemetry.Meter())
}

// ProvidePodLister provides the cluster pod query
func ProvidePodLister(cfg *config.Config) (cluster.PodLister, error) {
	return cluster.NewFromKubeconfig(cfg.Kubeconfig)
}

// ProvidePublisher provides the CI output publisher
func ProvidePublisher(cfg *config.Config) actions.Publisher {
	return actions.NewGitHubPublisher(cfg.GitHubOutput)
}

// ProvideWorkspaceController provides the workspace lifecycle controller
func ProvideWorkspaceController(
	cfg *config.Config,
	runner process.Runner,
	pods cluster.PodLister,
	publisher actions.Publisher,
	telemetry *otel.Provider,
) (workspaces.Controller, error) {
	return workspaces.NewController(workspaces.Config{
		CLI:               cfg.WorkspaceCLI,
		DescriptorLocator: cfg.DescriptorLocator,
		Namespace:         cfg.Namespace,
		FieldSelector:     cfg.FieldSelector,
		LabelSelector:     cfg.LabelSelector,
		Timeout:           cfg.PollTimeout,
		Interval:          cfg.PollInterval,
	}, runner, pods, publisher, telemetry.Meter())
}

// ProvideCloner provides the repository clone helper
func ProvideCloner(cfg *config.Config, runner process.Runner) pipeline.Cloner {
	return repository.NewCloner(repository.Config{
		URL:   cfg.CloneURL,
		Dir:   cfg.CloneDir,
		Depth: cfg.CloneDepth,
	}, runner)
}

// ProvideTestRunner provides the e2e container launcher
func ProvideTestRunner(cfg *config.Config, runner process.Runner) pipeline.TestRunner {
	return e2e.NewLauncher(e2e.Config{
		PlatformURL:     cfg.PlatformURL,
		CloneDir:        cfg.CloneDir,
		ImageRepository: cfg.E2EImageRepository,
		Tag:             cfg.E2EVersion,
	}, runner)
}

// ProvidePipeline provides the happy-path pipeline
func ProvidePipeline(
	cloner pipeline.Cloner,
	imageManager images.Manager,
	controller workspaces.Controller,
	tests pipeline.TestRunner,
	log *slog.Logger,
	telemetry *otel.Provider,
) (*pipeline.Pipeline, error) {
	return pipeline.New(cloner, imageManager, controller, tests, log, telemetry.Tracer(), telemetry.Meter())
}
