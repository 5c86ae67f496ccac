//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Stores
		ProvideSeriesStore,
		ProvideAlertStore,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideArchive,
		ProvideKafkaProducer,
		ProvideTickPublisher,
		ProvideKafkaConsumer,
		ProvideKafkaTicksHandler,
		ProvideRedisCache,
		ProvideSummaryCache,
		ProvideQueue,
		ProvideNotifyService,
		ProvideSummarizer,

		// Use cases
		ProvideTickProcessor,
		ProvideIngestPipeline,
		ProvideTickProducer,
		ProvideSummaryAggregator,
		ProvideAlertChecker,
		ProvideAlertNotifierJob,
		ProvideBroadcaster,

		// HTTP surface
		ProvideRoutes,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
