package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/analytics"
	"SignalDesk/internal/services/risk"
)

type captureStore struct {
	mu      sync.Mutex
	batches [][]*models.TradeSignal
}

func (s *captureStore) Init(context.Context) error { return nil }

func (s *captureStore) Store(_ context.Context, sig *models.TradeSignal) error {
	s.mu.Lock()
	s.batches = append(s.batches, []*models.TradeSignal{sig})
	s.mu.Unlock()
	return nil
}

func (s *captureStore) StoreBatch(_ context.Context, signals []*models.TradeSignal) error {
	s.mu.Lock()
	s.batches = append(s.batches, signals)
	s.mu.Unlock()
	return nil
}

func (s *captureStore) Query(context.Context, string, time.Time, time.Time, int) ([]*models.TradeSignal, error) {
	return nil, nil
}

func (s *captureStore) Health(context.Context) error { return nil }
func (s *captureStore) Close() error                 { return nil }

func TestBatchScanPreservesOrderAndForwards(t *testing.T) {
	source := &fakeSource{
		bars: map[string][]models.Bar{
			"UPSTOCK":   uptrendSeries(80),
			"FLATSTOCK": flatSeries(80),
		},
		index: uptrendSeries(80),
		vix:   15,
	}
	scanner := &stubScanner{engine: models.EngineMicro, setups: []models.CandidateSetup{microCandidate(models.Long)}}
	metrics := newRecordingMetrics()
	analyzer := NewAnalyzer(
		source,
		analytics.NewRegimeFilter(),
		analytics.NewEligibilityValidator(1_000),
		[]domsvc.SetupScanner{scanner},
		&stubScorer{probability: 80},
		risk.NewGovernor(1_000_000, risk.Limits{}),
		&stubSectors{sector: "IT"},
		metrics,
		AnalyzerConfig{EnableMicro: true},
		nil,
	)
	store := &captureStore{}
	proc := NewSignalProcessor(nil, store, metrics, "clickhouse")
	batch := NewBatchScanner(analyzer, proc, 2, nil)

	results := batch.Scan(context.Background(), []string{"UPSTOCK", "MISSING", "FLATSTOCK"}, "NIFTY", "")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0] == nil || results[0].Symbol != "UPSTOCK" || results[0].Status != models.StatusSuccess {
		t.Fatalf("slot 0: %+v", results[0])
	}
	if results[1] == nil || results[1].Status != models.StatusNoData {
		t.Fatalf("slot 1: %+v", results[1])
	}
	if results[2] == nil || results[2].Symbol != "FLATSTOCK" || results[2].Status != models.StatusNoTrade {
		t.Fatalf("slot 2: %+v", results[2])
	}

	// The one approved signal went out as a single batch.
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.batches) != 1 || len(store.batches[0]) != 1 {
		t.Fatalf("forwarded batches: %+v", store.batches)
	}
	if store.batches[0][0].Symbol != "UPSTOCK" {
		t.Fatalf("forwarded wrong symbol: %s", store.batches[0][0].Symbol)
	}
}

// cancellingSource cancels the scan while fetching the trigger symbol, then
// keeps the worker busy long enough that the feeder sees the cancellation.
type cancellingSource struct {
	*fakeSource
	cancel  context.CancelFunc
	trigger string
}

func (s *cancellingSource) FetchStockData(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if symbol == s.trigger {
		s.cancel()
		time.Sleep(50 * time.Millisecond)
	}
	return s.fakeSource.FetchStockData(ctx, symbol)
}

func TestBatchScanCancelledForwardsCompletedSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source := &cancellingSource{
		fakeSource: &fakeSource{
			bars:  map[string][]models.Bar{"UPSTOCK": uptrendSeries(80)},
			index: uptrendSeries(80),
			vix:   15,
		},
		cancel:  cancel,
		trigger: "SLOWSTOCK",
	}
	scanner := &stubScanner{engine: models.EngineMicro, setups: []models.CandidateSetup{microCandidate(models.Long)}}
	metrics := newRecordingMetrics()
	analyzer := NewAnalyzer(
		source,
		analytics.NewRegimeFilter(),
		analytics.NewEligibilityValidator(1_000),
		[]domsvc.SetupScanner{scanner},
		&stubScorer{probability: 80},
		risk.NewGovernor(1_000_000, risk.Limits{}),
		&stubSectors{sector: "IT"},
		metrics,
		AnalyzerConfig{EnableMicro: true},
		nil,
	)
	store := &captureStore{}
	batch := NewBatchScanner(analyzer, NewSignalProcessor(nil, store, metrics, "clickhouse"), 1, nil)

	results := batch.Scan(ctx, []string{"UPSTOCK", "SLOWSTOCK", "NEVERFED"}, "NIFTY", "")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0] == nil || results[0].Status != models.StatusSuccess || len(results[0].Signals) != 1 {
		t.Fatalf("completed symbol lost: %+v", results[0])
	}
	if results[2] != nil {
		t.Fatalf("symbol fed after cancellation: %+v", results[2])
	}

	// The signal admitted before the cancellation still reaches the backend.
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.batches) != 1 || len(store.batches[0]) != 1 {
		t.Fatalf("forwarded batches: %+v", store.batches)
	}
	if store.batches[0][0].Symbol != "UPSTOCK" {
		t.Fatalf("forwarded wrong symbol: %s", store.batches[0][0].Symbol)
	}
}

func TestBatchScanNothingApprovedForwardsNothing(t *testing.T) {
	source := &fakeSource{
		bars:  map[string][]models.Bar{"FLATSTOCK": flatSeries(80)},
		index: uptrendSeries(80),
		vix:   15,
	}
	metrics := newRecordingMetrics()
	analyzer := NewAnalyzer(
		source,
		analytics.NewRegimeFilter(),
		analytics.NewEligibilityValidator(1_000),
		nil,
		analytics.NewProbabilityScorer(),
		risk.NewGovernor(1_000_000, risk.Limits{}),
		&stubSectors{sector: "IT"},
		metrics,
		AnalyzerConfig{EnableMicro: true, EnableBigRunner: true},
		nil,
	)
	store := &captureStore{}
	batch := NewBatchScanner(analyzer, NewSignalProcessor(nil, store, metrics, "clickhouse"), 0, nil)

	batch.Scan(context.Background(), []string{"FLATSTOCK"}, "NIFTY", "")

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.batches) != 0 {
		t.Fatalf("nothing was approved but %d batches forwarded", len(store.batches))
	}
}
