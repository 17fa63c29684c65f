//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"
	"github.com/onkernel/happypath/cmd/happypath/config"
	"github.com/onkernel/happypath/lib/pipeline"
	"github.com/onkernel/happypath/lib/providers"
)

// application struct to hold initialized components
type application struct {
	Logger   *slog.Logger
	Config   *config.Config
	Pipeline *pipeline.Pipeline
}

// initializeApp is the injector function
func initializeApp(ctx context.Context) (*application, func(), error) {
	panic(wire.Build(
		providers.ProvideConfig,
		providers.ProvideTelemetry,
		providers.ProvideLogger,
		providers.ProvideRunner,
		providers.ProvideDiscoverer,
		providers.ProvideRegistryChecker,
		providers.ProvideImageManager,
		providers.ProvidePodLister,
		providers.ProvidePublisher,
		providers.ProvideWorkspaceController,
		providers.ProvideCloner,
		providers.ProvideTestRunner,
		providers.ProvidePipeline,
		wire.Struct(new(application), "*"),
	))
}
