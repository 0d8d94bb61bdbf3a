package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/handler/api"
	mid "SignalDesk/internal/middleware"
	internalrepo "SignalDesk/internal/repository"
	icache "SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/marketdata"
	"SignalDesk/internal/service/ratelimit"
	"SignalDesk/internal/services/analytics"
	"SignalDesk/internal/services/engine"
	"SignalDesk/internal/services/risk"
	"SignalDesk/internal/services/sector"
	"SignalDesk/internal/usecase"
	pkgcache "SignalDesk/pkg/cache"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/queue"
	"SignalDesk/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the shared application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and prepares the
// signal schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SignalSchema); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBytesCache picks the cache backing for fetched series: a layered
// memory+Redis cache when Redis is configured, in-process TTL cache
// otherwise.
func ProvideBytesCache(cfg *config.Config) (icache.BytesCache, error) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), nil
	}
	host, port := splitHostPort(cfg.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return icache.NewServiceBytes(pkgcache.NewLayeredCache(rc)), nil
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideMarketDataSource creates the REST market-data client.
func ProvideMarketDataSource(cfg *config.Config, cache icache.BytesCache, log *applogger.Logger) repository.MarketDataSource {
	return marketdata.NewClient(marketdata.Config{
		BaseURL:       cfg.MarketData.BaseURL,
		APIKey:        cfg.MarketData.APIKey,
		HistoryDays:   cfg.MarketData.HistoryDays,
		Timeout:       cfg.MarketData.Timeout,
		CacheTTL:      cfg.MarketData.CacheTTL,
		RateCapacity:  cfg.MarketData.RateCapacity,
		RateRefillSec: cfg.MarketData.RateRefillSec,
	}, cache, ratelimit.New(), log)
}

// ProvideVIXStream creates the provider WebSocket stream for volatility
// readings.
func ProvideVIXStream(cfg *config.Config, log *applogger.Logger) repository.VIXStream {
	return marketdata.NewVIXStream(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
		log,
	)
}

// ProvideRiskGovernor creates the portfolio risk governor.
func ProvideRiskGovernor(cfg *config.Config, log *applogger.Logger) domsvc.RiskGovernor {
	return risk.NewGovernor(cfg.Risk.Capital, risk.Limits{
		MaxOpenTotal:     cfg.Risk.MaxOpenTotal,
		MaxOpenMicro:     cfg.Risk.MaxOpenMicro,
		MaxOpenBigRunner: cfg.Risk.MaxOpenBigRunner,
		MaxPerSector:     cfg.Risk.MaxPerSector,
		MaxPerDirection:  cfg.Risk.MaxPerDirection,
		MaxVIX:           cfg.Risk.MaxVIX,
	}, risk.WithLogger(log))
}

// ProvideRegimeClassifier creates the macro trend gate.
func ProvideRegimeClassifier() domsvc.RegimeClassifier {
	return analytics.NewRegimeFilter()
}

// ProvideEligibilityValidator creates the liquidity/tradability gate.
func ProvideEligibilityValidator(cfg *config.Config) domsvc.EligibilityValidator {
	return analytics.NewEligibilityValidator(cfg.Risk.MinTurnover)
}

// ProvideProbabilityScorer creates the composite scorer.
func ProvideProbabilityScorer() domsvc.ProbabilityScorer {
	return analytics.NewProbabilityScorer()
}

// ProvideSectorLookup creates the symbol-to-sector table.
func ProvideSectorLookup() domsvc.SectorLookup {
	return sector.NewLookup()
}

// ProvideScanners returns both setup engines; the analyzer applies the
// per-engine enable flags.
func ProvideScanners() []domsvc.SetupScanner {
	return []domsvc.SetupScanner{
		engine.NewMicroScanner(),
		engine.NewBigRunnerScanner(),
	}
}

// ProvideSignalStore creates the ClickHouse signal repository.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config) repository.SignalStore {
	return internalrepo.NewClickHouseSignalStore(chClient.DB(), cfg.ClickHouse.Database+".trade_signals")
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
}

// ProvideSignalProcessor creates the backend router for approved signals.
func ProvideSignalProcessor(
	pub repository.SignalPublisher,
	store repository.SignalStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvideSignalDispatch builds the validate/throttle/buffer stage in front
// of the processor.
func ProvideSignalDispatch(proc *usecase.SignalProcessor, metrics repository.Metrics) *mid.SignalDispatch {
	return mid.NewSignalDispatch(proc, metrics,
		mid.WithMinGap(time.Second),
		mid.WithBufferSize(512),
	)
}

// ProvideAnalyzer creates the per-symbol decision pipeline.
func ProvideAnalyzer(
	source repository.MarketDataSource,
	regime domsvc.RegimeClassifier,
	validator domsvc.EligibilityValidator,
	scanners []domsvc.SetupScanner,
	scorer domsvc.ProbabilityScorer,
	governor domsvc.RiskGovernor,
	sectors domsvc.SectorLookup,
	metrics repository.Metrics,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(source, regime, validator, scanners, scorer, governor, sectors, metrics,
		usecase.AnalyzerConfig{
			EnableMicro:     cfg.Engines.EnableMicro,
			EnableBigRunner: cfg.Engines.EnableBigRunner,
			NominalRiskPct:  cfg.Engines.NominalRiskPct,
		}, log)
}

// ProvideBatchScanner creates the concurrent multi-symbol scanner.
func ProvideBatchScanner(
	analyzer *usecase.Analyzer,
	proc *usecase.SignalProcessor,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.BatchScanner {
	return usecase.NewBatchScanner(analyzer, proc, cfg.Engines.ScanWorkers, log)
}

// ProvideScanRequestsHandler registers the handler for the scan-request topic.
func ProvideScanRequestsHandler(batch *usecase.BatchScanner, metrics repository.Metrics, cfg *config.Config) *usecase.ScanRequestsHandler {
	return usecase.NewScanRequestsHandler(cfg.Kafka.ScansTopic, batch, metrics)
}

// ProvideScanJob creates the queue job running async scan requests.
func ProvideScanJob(batch *usecase.BatchScanner, metrics repository.Metrics) *usecase.ScanJob {
	return usecase.NewScanJob(batch, metrics)
}

// ProvideScanQueue creates the Redis-backed scan queue, or nil when Redis
// is not configured; callers treat a nil queue as "async scans disabled".
func ProvideScanQueue(cfg *config.Config, log *applogger.Logger, job *usecase.ScanJob) *queue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisQueue(log, &queue.QueueConfig{
		Workers:    2,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, client, queue.ModeProducerConsumer, queue.WithKeyPrefix("signaldesk:scans"))
	q.RegisterJob(job)
	return q
}

// ProvideVIXCollector creates the streamed-VIX consumer.
func ProvideVIXCollector(
	stream repository.VIXStream,
	governor domsvc.RiskGovernor,
	metrics repository.Metrics,
	log *applogger.Logger,
) *usecase.VIXCollector {
	return usecase.NewVIXCollector(stream, governor, metrics, log)
}

// ProvideBarsUseCase exposes raw series reads.
func ProvideBarsUseCase(source repository.MarketDataSource) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(source)
}

// ProvideDiagnosticsUseCase exposes the explain surface.
func ProvideDiagnosticsUseCase(
	source repository.MarketDataSource,
	regime domsvc.RegimeClassifier,
	validator domsvc.EligibilityValidator,
	sectors domsvc.SectorLookup,
) *usecase.DiagnosticsUseCase {
	return usecase.NewDiagnosticsUseCase(source, regime, validator, sectors)
}

// ProvideCachedSignalsHandler creates the cache-backed signal history
// endpoint used by polling dashboards.
func ProvideCachedSignalsHandler(
	store repository.SignalStore,
	cache icache.BytesCache,
	log *applogger.Logger,
) *api.CachedSignalsHandler {
	h := api.NewCachedSignalsHandler(store)
	h.SetCache(cache)
	h.SetLogger(log)
	return h
}

// ProvideHTTPHandler creates the Echo route surface.
func ProvideHTTPHandler(
	log *applogger.Logger,
	analyzer *usecase.Analyzer,
	batch *usecase.BatchScanner,
	bars *usecase.BarsUseCase,
	diagnostics *usecase.DiagnosticsUseCase,
	dispatch *mid.SignalDispatch,
	store repository.SignalStore,
	governor domsvc.RiskGovernor,
	cached *api.CachedSignalsHandler,
) *api.AnalysisEchoHandler {
	h := api.NewAnalysisEchoHandler(log, analyzer, batch, bars, diagnostics, dispatch, store, governor)
	h.SetCachedSignals(cached)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	vixCollector *usecase.VIXCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.ScanRequestsHandler,
	chClient *pkgch.Client,
	dispatch *mid.SignalDispatch,
	proc *usecase.SignalProcessor,
	scanQueue *queue.RedisQueue,
	handler *api.AnalysisEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if scanQueue != nil {
		handler.SetScanQueue(scanQueue)
	}
	app := server.New(cfg, vixCollector, consumer, kh, chClient, dispatch)
	app.Proc = proc
	app.ScanQueue = scanQueue
	app.SetHTTPHandler(handler)
	return app
}
