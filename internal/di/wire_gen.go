// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"SignalDesk/pkg/config"
	"SignalDesk/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	vixStream := ProvideVIXStream(cfg, logger)
	riskGovernor := ProvideRiskGovernor(cfg, logger)
	metrics := ProvideMetrics()
	vixCollector := ProvideVIXCollector(vixStream, riskGovernor, metrics, logger)
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	bytesCache, err := ProvideBytesCache(cfg)
	if err != nil {
		return nil, err
	}
	marketDataSource := ProvideMarketDataSource(cfg, bytesCache, logger)
	regimeClassifier := ProvideRegimeClassifier()
	eligibilityValidator := ProvideEligibilityValidator(cfg)
	v := ProvideScanners()
	probabilityScorer := ProvideProbabilityScorer()
	sectorLookup := ProvideSectorLookup()
	analyzer := ProvideAnalyzer(marketDataSource, regimeClassifier, eligibilityValidator, v, probabilityScorer, riskGovernor, sectorLookup, metrics, cfg, logger)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	signalPublisher := ProvideSignalPublisher(producer, cfg)
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	signalStore := ProvideSignalStore(client, cfg)
	signalProcessor := ProvideSignalProcessor(signalPublisher, signalStore, metrics, cfg)
	batchScanner := ProvideBatchScanner(analyzer, signalProcessor, cfg, logger)
	scanRequestsHandler := ProvideScanRequestsHandler(batchScanner, metrics, cfg)
	signalDispatch := ProvideSignalDispatch(signalProcessor, metrics)
	scanJob := ProvideScanJob(batchScanner, metrics)
	redisQueue := ProvideScanQueue(cfg, logger, scanJob)
	barsUseCase := ProvideBarsUseCase(marketDataSource)
	diagnosticsUseCase := ProvideDiagnosticsUseCase(marketDataSource, regimeClassifier, eligibilityValidator, sectorLookup)
	cachedSignalsHandler := ProvideCachedSignalsHandler(signalStore, bytesCache, logger)
	analysisEchoHandler := ProvideHTTPHandler(logger, analyzer, batchScanner, barsUseCase, diagnosticsUseCase, signalDispatch, signalStore, riskGovernor, cachedSignalsHandler)
	app := ProvideApp(cfg, vixCollector, consumer, scanRequestsHandler, client, signalDispatch, signalProcessor, redisQueue, analysisEchoHandler)
	return app, nil
}
