package usecase

import (
	"context"
	"sync"

	"SignalDesk/internal/domain/models"
	"SignalDesk/pkg/logger"
)

const defaultScanWorkers = 4

// BatchScanner fans a list of symbols across a bounded worker pool, running
// the full pipeline for each, and hands approved signals to the processor.
// Per-symbol failures are logged and skipped; one bad symbol never sinks
// the batch.
type BatchScanner struct {
	analyzer *Analyzer
	proc     *SignalProcessor
	workers  int
	log      *logger.Logger
}

func NewBatchScanner(analyzer *Analyzer, proc *SignalProcessor, workers int, log *logger.Logger) *BatchScanner {
	if workers <= 0 {
		workers = defaultScanWorkers
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &BatchScanner{analyzer: analyzer, proc: proc, workers: workers, log: log}
}

// Scan analyzes every symbol and returns the per-symbol results in input
// order. Approved signals are forwarded to the processor as one batch.
func (b *BatchScanner) Scan(ctx context.Context, symbols []string, index, sector string) []*models.AnalysisResult {
	results := make([]*models.AnalysisResult, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := b.analyzer.Analyze(ctx, symbols[i], index, sector)
				if err != nil {
					b.log.Error("scan symbol failed",
						logger.String("symbol", symbols[i]),
						logger.Error(err))
					continue
				}
				results[i] = res
			}
		}()
	}

	for i := range symbols {
		select {
		case <-ctx.Done():
			// Stop feeding; in-flight symbols finish on their own. Signals
			// admitted so far already hold governor slots, so they must
			// still reach the backend.
			close(jobs)
			wg.Wait()
			b.forward(context.WithoutCancel(ctx), results)
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	b.forward(ctx, results)
	return results
}

func (b *BatchScanner) forward(ctx context.Context, results []*models.AnalysisResult) {
	if b.proc == nil {
		return
	}
	var approved []*models.TradeSignal
	for _, res := range results {
		if res == nil {
			continue
		}
		for i := range res.Signals {
			approved = append(approved, &res.Signals[i])
		}
	}
	if len(approved) == 0 {
		return
	}
	if err := b.proc.ProcessBatch(ctx, approved); err != nil {
		b.log.Error("forward batch failed",
			logger.Int("signals", len(approved)),
			logger.Error(err))
	}
}
