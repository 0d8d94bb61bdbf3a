package repository

import (
	"context"
	"time"

	"SignalDesk/internal/domain/models"
)

// MarketDataSource fetches the series the pipeline analyzes. A nil snapshot
// with a nil error means the provider has no data for the symbol, which is
// a hard stop for that symbol. Missing index data is reported the same way
// and degrades regime analysis instead of failing it.
type MarketDataSource interface {
	FetchStockData(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
	FetchIndexData(ctx context.Context, index string) ([]models.Bar, error)
	CurrentVIX(ctx context.Context) (float64, error)
}

// SignalStore persists approved trade signals. The pipeline never reads
// them back; queries serve the API surface only.
type SignalStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, s *models.TradeSignal) error
	StoreBatch(ctx context.Context, signals []*models.TradeSignal) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher fans approved signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.TradeSignal) error
	PublishBatch(ctx context.Context, signals []*models.TradeSignal) error
	Close() error
}

// VIXStream delivers volatility-index readings pushed by the market-data
// provider, used to keep the risk governor's regime gate current.
type VIXStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan float64, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordAnalysis(symbol string, status string)
	RecordRejection(stage string)
	RecordSignal(engine string)
	RecordProbability(symbol string, probability float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
