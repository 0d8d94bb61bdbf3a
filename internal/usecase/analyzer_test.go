package usecase

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/analytics"
	"SignalDesk/internal/services/risk"
)

// --- fakes ---

type fakeSource struct {
	bars  map[string][]models.Bar
	index []models.Bar
	vix   float64
}

func (f *fakeSource) FetchStockData(_ context.Context, symbol string) (*models.MarketSnapshot, error) {
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, nil
	}
	return &models.MarketSnapshot{Symbol: symbol, Bars: bars}, nil
}

func (f *fakeSource) FetchIndexData(_ context.Context, _ string) ([]models.Bar, error) {
	return f.index, nil
}

func (f *fakeSource) CurrentVIX(_ context.Context) (float64, error) { return f.vix, nil }

type stubScanner struct {
	engine models.EngineType
	setups []models.CandidateSetup
	calls  int
}

func (s *stubScanner) Engine() models.EngineType { return s.engine }

func (s *stubScanner) Scan(_ *models.MarketSnapshot) []models.CandidateSetup {
	s.calls++
	return s.setups
}

// stubScorer assigns one fixed probability to every candidate and keeps the
// production thresholds.
type stubScorer struct {
	probability float64
}

func (s *stubScorer) Score(_ *models.MarketSnapshot, _ models.CandidateSetup, _ float64) models.ProbabilityComponents {
	return models.ProbabilityComponents{
		MarketScore:      s.probability,
		TrendScore:       s.probability,
		MomentumScore:    s.probability,
		VolumeScore:      s.probability,
		RiskScore:        s.probability,
		FinalProbability: s.probability,
	}
}

func (s *stubScorer) MeetsThreshold(probability float64, engine models.EngineType) bool {
	return (&analytics.ProbabilityScorer{}).MeetsThreshold(probability, engine)
}

type stubSectors struct{ sector string }

func (s *stubSectors) DetectSector(string) string { return s.sector }

type recordingMetrics struct {
	mu         sync.Mutex
	analyses   map[string]string
	rejections map[string]int
	errors     map[string]int
	signals    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		analyses:   make(map[string]string),
		rejections: make(map[string]int),
		errors:     make(map[string]int),
	}
}

func (m *recordingMetrics) RecordAnalysis(symbol, status string) {
	m.mu.Lock()
	m.analyses[symbol] = status
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordRejection(stage string) {
	m.mu.Lock()
	m.rejections[stage]++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordSignal(string) {
	m.mu.Lock()
	m.signals++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordProbability(string, float64) {}
func (m *recordingMetrics) RecordLatency(string, float64)     {}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

// --- series builders ---

func seriesBar(i int, close, spread, volume float64) models.Bar {
	return models.Bar{
		Date:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:   close - spread/4,
		High:   close + spread/2,
		Low:    close - spread/2,
		Close:  close,
		Volume: volume,
	}
}

func uptrendSeries(n int) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = seriesBar(i, 100+float64(i), 2, 1_000_000)
	}
	return out
}

func flatSeries(n int) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = seriesBar(i, 100, 2, 1_000_000)
	}
	return out
}

func microCandidate(dir models.TradeDirection) models.CandidateSetup {
	entry, stop := 105.0, 100.0
	targets := map[string]float64{"0.8R": 109.0, "1.0R": 110.0, "1.3R": 111.5}
	if dir == models.Short {
		entry, stop = 100.0, 105.0
		targets = map[string]float64{"0.8R": 96.0, "1.0R": 95.0, "1.3R": 93.5}
	}
	return models.CandidateSetup{
		Engine:     models.EngineMicro,
		Kind:       "RANGE_BREAKOUT",
		Direction:  dir,
		EntryPrice: entry,
		StopLoss:   stop,
		Targets:    targets,
	}
}

func bigRunnerCandidate(dir models.TradeDirection) models.CandidateSetup {
	entry, stop, target := 105.0, 98.0, 119.0
	if dir == models.Short {
		entry, stop, target = 100.0, 107.0, 86.0
	}
	return models.CandidateSetup{
		Engine:            models.EngineBigRunner,
		Kind:              "TREND_CONTINUATION",
		Direction:         dir,
		EntryPrice:        entry,
		StopLoss:          stop,
		PartialExitTarget: target,
		TrailingMethod:    models.TrailATR,
	}
}

type analyzerFixture struct {
	analyzer *Analyzer
	scanner  *stubScanner
	governor *risk.Governor
	metrics  *recordingMetrics
}

func newAnalyzerFixture(bars []models.Bar, probability float64, setups ...models.CandidateSetup) *analyzerFixture {
	scanner := &stubScanner{engine: models.EngineMicro, setups: setups}
	governor := risk.NewGovernor(1_000_000, risk.Limits{})
	metrics := newRecordingMetrics()
	analyzer := NewAnalyzer(
		&fakeSource{bars: map[string][]models.Bar{"TESTSTOCK": bars}, index: uptrendSeries(80), vix: 15},
		analytics.NewRegimeFilter(),
		analytics.NewEligibilityValidator(1_000),
		[]domsvc.SetupScanner{scanner},
		&stubScorer{probability: probability},
		governor,
		&stubSectors{sector: "IT"},
		metrics,
		AnalyzerConfig{EnableMicro: true, EnableBigRunner: true},
		nil,
	)
	return &analyzerFixture{analyzer: analyzer, scanner: scanner, governor: governor, metrics: metrics}
}

// --- tests ---

func TestAnalyzeNoData(t *testing.T) {
	fx := newAnalyzerFixture(nil, 80)

	res, err := fx.analyzer.Analyze(context.Background(), "MISSING", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusNoData {
		t.Fatalf("status = %s, want NO_DATA", res.Status)
	}
	if fx.scanner.calls != 0 {
		t.Fatalf("scanners must not run on NO_DATA, got %d calls", fx.scanner.calls)
	}
}

func TestAnalyzeNoTradeSkipsScanners(t *testing.T) {
	fx := newAnalyzerFixture(flatSeries(80), 80, microCandidate(models.Long))

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusNoTrade {
		t.Fatalf("status = %s, want NO_TRADE", res.Status)
	}
	if res.Regime == nil || res.Regime.Tradeable() {
		t.Fatalf("NO_TRADE result must carry a non-tradeable regime: %+v", res.Regime)
	}
	if fx.scanner.calls != 0 {
		t.Fatalf("scanners must not run on NO_TRADE, got %d calls", fx.scanner.calls)
	}
}

func TestAnalyzeNotEligible(t *testing.T) {
	bars := uptrendSeries(80)
	for i := 70; i < 80; i++ {
		bars[i].Volume = 0 // dead sessions: turnover and liquidity both fail
	}
	fx := newAnalyzerFixture(bars, 80, microCandidate(models.Long))

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusNotEligible {
		t.Fatalf("status = %s, want NOT_ELIGIBLE", res.Status)
	}
	if len(res.Reasons) == 0 {
		t.Fatal("NOT_ELIGIBLE must report the failed checks")
	}
	if fx.scanner.calls != 0 {
		t.Fatalf("scanners must not run on NOT_ELIGIBLE, got %d calls", fx.scanner.calls)
	}
}

func TestAnalyzeApprovesAboveThreshold(t *testing.T) {
	fx := newAnalyzerFixture(uptrendSeries(80), 72, microCandidate(models.Long))

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusSuccess || len(res.Signals) != 1 {
		t.Fatalf("want SUCCESS with one signal, got %s with %d", res.Status, len(res.Signals))
	}

	s := res.Signals[0]
	if s.EngineLabel != "MICRO-PROFIT" {
		t.Fatalf("engine label = %q", s.EngineLabel)
	}
	if s.Sector != "IT" || s.ExpectedHold != "Swing" {
		t.Fatalf("unexpected signal metadata: %+v", s)
	}
	// prob 72 -> 0.50 + (7/25)*1.50 = 0.92% of 1M = 9200 budget / 5 risk.
	if s.Shares != 1840 || math.Abs(s.RiskPct-0.92) > 1e-9 {
		t.Fatalf("sizing: %d shares at %.4f%%, want 1840 at 0.92%%", s.Shares, s.RiskPct)
	}
	if got := len(fx.governor.State().Positions); got != 1 {
		t.Fatalf("governor book holds %d positions, want 1", got)
	}
}

func TestAnalyzeAggregatesBothEngineApprovals(t *testing.T) {
	micro := &stubScanner{engine: models.EngineMicro, setups: []models.CandidateSetup{microCandidate(models.Long)}}
	runner := &stubScanner{engine: models.EngineBigRunner, setups: []models.CandidateSetup{bigRunnerCandidate(models.Long)}}
	governor := risk.NewGovernor(1_000_000, risk.Limits{})
	metrics := newRecordingMetrics()
	analyzer := NewAnalyzer(
		&fakeSource{bars: map[string][]models.Bar{"TESTSTOCK": uptrendSeries(80)}, index: uptrendSeries(80), vix: 15},
		analytics.NewRegimeFilter(),
		analytics.NewEligibilityValidator(1_000),
		[]domsvc.SetupScanner{micro, runner},
		&stubScorer{probability: 80},
		governor,
		&stubSectors{sector: "IT"},
		metrics,
		AnalyzerConfig{EnableMicro: true, EnableBigRunner: true},
		nil,
	)

	res, err := analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both engines passed threshold and fit within the caps, so the analysis
	// aggregates both approvals instead of stopping at the first.
	if res.Status != models.StatusSuccess || len(res.Signals) != 2 {
		t.Fatalf("want SUCCESS with two signals, got %s with %d", res.Status, len(res.Signals))
	}
	engines := map[models.EngineType]bool{}
	for _, s := range res.Signals {
		engines[s.Engine] = true
	}
	if !engines[models.EngineMicro] || !engines[models.EngineBigRunner] {
		t.Fatalf("want one signal per engine, got %v", engines)
	}
	if got := len(governor.State().Positions); got != 2 {
		t.Fatalf("governor book holds %d positions, want 2", got)
	}
	if metrics.signals != 2 {
		t.Fatalf("recorded %d signals, want 2", metrics.signals)
	}
}

func TestAnalyzeDropsBelowThreshold(t *testing.T) {
	fx := newAnalyzerFixture(uptrendSeries(80), 68, microCandidate(models.Long))

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Dropped candidate is still a completed analysis, not a gate stop.
	if res.Status != models.StatusSuccess || len(res.Signals) != 0 {
		t.Fatalf("want SUCCESS with no signals, got %s with %d", res.Status, len(res.Signals))
	}
	if fx.metrics.rejections["probability"] != 1 {
		t.Fatalf("probability rejection not recorded: %v", fx.metrics.rejections)
	}
	if got := len(fx.governor.State().Positions); got != 0 {
		t.Fatalf("dropped candidate must not touch the book, got %d positions", got)
	}
}

func TestAnalyzeRegimeVetoesDirection(t *testing.T) {
	// Uptrend regime: short candidates never reach the scorer.
	fx := newAnalyzerFixture(uptrendSeries(80), 90, microCandidate(models.Short))

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Signals) != 0 {
		t.Fatalf("counter-trend candidate must be dropped, got %d signals", len(res.Signals))
	}
	if fx.metrics.rejections["direction"] != 1 {
		t.Fatalf("direction rejection not recorded: %v", fx.metrics.rejections)
	}
}

func TestAnalyzeRiskRejectionYieldsNoSignal(t *testing.T) {
	fx := newAnalyzerFixture(uptrendSeries(80), 80, microCandidate(models.Long))
	// Fill the IT sector (cap 2) before the analysis runs.
	for _, sym := range []string{"OTHER1", "OTHER2"} {
		if _, check := fx.governor.AdmitAndSize(sym, "IT", models.Long, models.EngineMicro, 80, 105, 100); !check.Allowed {
			t.Fatalf("fixture admission of %s failed: %s", sym, check.Reason)
		}
	}

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != models.StatusSuccess || len(res.Signals) != 0 {
		t.Fatalf("want SUCCESS with no signals, got %s with %d", res.Status, len(res.Signals))
	}
	if fx.metrics.rejections["risk"] != 1 {
		t.Fatalf("risk rejection not recorded: %v", fx.metrics.rejections)
	}
}

func TestAnalyzeDisabledEngineNeverScans(t *testing.T) {
	fx := newAnalyzerFixture(uptrendSeries(80), 80, microCandidate(models.Long))
	fx.analyzer.cfg.EnableMicro = false

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.scanner.calls != 0 {
		t.Fatalf("disabled engine was scanned %d times", fx.scanner.calls)
	}
	if res.Status != models.StatusSuccess || len(res.Signals) != 0 {
		t.Fatalf("want SUCCESS with no signals, got %s with %d", res.Status, len(res.Signals))
	}
}

func TestAnalyzeVIXFlowsToGovernor(t *testing.T) {
	fx := newAnalyzerFixture(uptrendSeries(80), 80, microCandidate(models.Long))
	fx.analyzer.source.(*fakeSource).vix = 32.0

	res, err := fx.analyzer.Analyze(context.Background(), "TESTSTOCK", "NIFTY", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.VIX != 32.0 {
		t.Fatalf("result VIX = %.1f, want 32.0", res.VIX)
	}
	// VIX 32 trips the volatility gate: candidate passes threshold but the
	// governor refuses it.
	if len(res.Signals) != 0 || fx.metrics.rejections["risk"] != 1 {
		t.Fatalf("VIX gate did not hold: %d signals, rejections %v", len(res.Signals), fx.metrics.rejections)
	}
}
