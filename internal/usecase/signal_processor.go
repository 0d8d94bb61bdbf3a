package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

// SignalProcessor routes approved signals to the configured backend:
// ClickHouse persistence, Kafka fan-out, or both.
type SignalProcessor struct {
	pub     domrepo.SignalPublisher
	store   domrepo.SignalStore
	metrics domrepo.Metrics
	backend string
}

// NewSignalProcessor creates a new SignalProcessor instance.
func NewSignalProcessor(
	pub domrepo.SignalPublisher,
	store domrepo.SignalStore,
	metrics domrepo.Metrics,
	backend string,
) *SignalProcessor {
	return &SignalProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Process routes a single approved signal to the configured backend.
func (p *SignalProcessor) Process(ctx context.Context, s *models.TradeSignal) error {
	if s == nil {
		return fmt.Errorf("signal is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, s)
	case "clickhouse":
		err = p.store.Store(ctx, s)
	case "both":
		if err = p.store.Store(ctx, s); err == nil {
			err = p.pub.Publish(ctx, s)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process signal: %w", err)
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple signals in a batch.
func (p *SignalProcessor) ProcessBatch(ctx context.Context, signals []*models.TradeSignal) error {
	if len(signals) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, signals)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, signals)
	case "both":
		if err = p.store.StoreBatch(ctx, signals); err == nil {
			err = p.pub.PublishBatch(ctx, signals)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *SignalProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
