//go:build wireinject
// +build wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideBytesCache,

		// Market data
		ProvideMarketDataSource,
		ProvideVIXStream,

		// Pipeline services
		ProvideRegimeClassifier,
		ProvideEligibilityValidator,
		ProvideProbabilityScorer,
		ProvideSectorLookup,
		ProvideScanners,
		ProvideRiskGovernor,

		// Repositories
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Use cases
		ProvideSignalProcessor,
		ProvideSignalDispatch,
		ProvideAnalyzer,
		ProvideBatchScanner,
		ProvideScanRequestsHandler,
		ProvideScanJob,
		ProvideScanQueue,
		ProvideVIXCollector,
		ProvideBarsUseCase,
		ProvideDiagnosticsUseCase,

		// HTTP surface
		ProvideCachedSignalsHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
