package engine

import (
	"math"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
)

func barAt(i int, close, spread, volume float64) models.Bar {
	return models.Bar{
		Date:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:   close - spread/4,
		High:   close + spread/2,
		Low:    close - spread/2,
		Close:  close,
		Volume: volume,
	}
}

// risingBars produces n bars climbing one point per session.
func risingBars(n int, start float64) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = barAt(i, start+float64(i), 2, 1_000_000)
	}
	return out
}

func snapshot(bars []models.Bar) *models.MarketSnapshot {
	return &models.MarketSnapshot{Symbol: "TESTSTOCK", Bars: bars, VIX: 15}
}

func TestMicroScannerRangeBreakout(t *testing.T) {
	bars := risingBars(54, 100)
	// Six-session compression just under the highs: one-point total range.
	for i := 0; i < 6; i++ {
		bars = append(bars, barAt(54+i, 155, 1, 1_000_000))
	}

	setups := NewMicroScanner().Scan(snapshot(bars))
	if len(setups) != 1 {
		t.Fatalf("expected exactly one setup, got %d: %+v", len(setups), setups)
	}
	s := setups[0]
	if s.Kind != "RANGE_BREAKOUT" || s.Direction != models.Long {
		t.Fatalf("expected long RANGE_BREAKOUT, got %s %s", s.Direction, s.Kind)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted setup fails validation: %v", err)
	}
	for _, label := range []string{"0.8R", "1.0R", "1.3R"} {
		if _, ok := s.Targets[label]; !ok {
			t.Fatalf("ladder missing rung %s: %v", label, s.Targets)
		}
	}
	risk := s.EntryPrice - s.StopLoss
	want := s.EntryPrice + 1.3*risk
	if got := s.Targets["1.3R"]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("1.3R rung = %.4f, want %.4f", got, want)
	}
}

func TestMicroScannerRangeBreakdownShort(t *testing.T) {
	bars := make([]models.Bar, 0, 60)
	for i := 0; i < 54; i++ {
		bars = append(bars, barAt(i, 200-float64(i), 2, 1_000_000))
	}
	for i := 0; i < 6; i++ {
		bars = append(bars, barAt(54+i, 145, 1, 1_000_000))
	}

	setups := NewMicroScanner().Scan(snapshot(bars))
	if len(setups) != 1 {
		t.Fatalf("expected exactly one setup, got %d: %+v", len(setups), setups)
	}
	s := setups[0]
	if s.Kind != "RANGE_BREAKDOWN" || s.Direction != models.Short {
		t.Fatalf("expected short RANGE_BREAKDOWN, got %s %s", s.Direction, s.Kind)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted setup fails validation: %v", err)
	}
	if s.StopLoss <= s.EntryPrice {
		t.Fatalf("short stop %.4f must sit above entry %.4f", s.StopLoss, s.EntryPrice)
	}
}

func TestMicroScannerPullbackToSupport(t *testing.T) {
	bars := risingBars(55, 100) // ends at 154
	for i, close := range []float64{150, 147, 145, 144} {
		bars = append(bars, barAt(55+i, close, 2, 1_000_000))
	}
	bounce := barAt(59, 147, 2, 1_400_000)
	bounce.Open = 144
	bounce.High = 147.5
	bounce.Low = 143.5
	bars = append(bars, bounce)

	setups := NewMicroScanner().Scan(snapshot(bars))
	if len(setups) != 1 {
		t.Fatalf("expected exactly one setup, got %d: %+v", len(setups), setups)
	}
	s := setups[0]
	if s.Kind != "PULLBACK_SUPPORT" || s.Direction != models.Long {
		t.Fatalf("expected long PULLBACK_SUPPORT, got %s %s", s.Direction, s.Kind)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted setup fails validation: %v", err)
	}
	if s.StopLoss < s.EntryPrice*0.97-1e-9 {
		t.Fatalf("stop %.4f further than 3%% below entry %.4f", s.StopLoss, s.EntryPrice)
	}
}

func TestMicroScannerQuietTapeYieldsNothing(t *testing.T) {
	flat := make([]models.Bar, 80)
	for i := range flat {
		flat[i] = barAt(i, 100, 2, 1_000_000)
	}
	if setups := NewMicroScanner().Scan(snapshot(flat)); len(setups) != 0 {
		t.Fatalf("flat tape should yield no setups, got %+v", setups)
	}
	if setups := NewMicroScanner().Scan(snapshot(flat[:30])); setups != nil {
		t.Fatalf("short history should yield nil, got %+v", setups)
	}
}

func TestBigRunnerTrendContinuation(t *testing.T) {
	bars := risingBars(60, 100)
	// Volume expands into the final leg.
	for i := 55; i < 60; i++ {
		bars[i].Volume = 2_000_000
	}

	setups := NewBigRunnerScanner().Scan(snapshot(bars))
	if len(setups) != 1 {
		t.Fatalf("expected exactly one setup, got %d: %+v", len(setups), setups)
	}
	s := setups[0]
	if s.Kind != "TREND_CONTINUATION" || s.Direction != models.Long {
		t.Fatalf("expected long TREND_CONTINUATION, got %s %s", s.Direction, s.Kind)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted setup fails validation: %v", err)
	}
	if len(s.Targets) != 0 {
		t.Fatalf("big-runner setup must not carry a ladder: %v", s.Targets)
	}
	risk := s.EntryPrice - s.StopLoss
	want := s.EntryPrice + runnerPartialMult*risk
	if math.Abs(s.PartialExitTarget-want) > 1e-9 {
		t.Fatalf("partial exit = %.4f, want %.4f", s.PartialExitTarget, want)
	}
	// One-point daily steps on a 159 close are an orderly tape.
	if s.TrailingMethod != models.TrailStructure {
		t.Fatalf("expected structure trail on low-volatility tape, got %s", s.TrailingMethod)
	}
}

func TestBigRunnerShortBreakdown(t *testing.T) {
	bars := make([]models.Bar, 60)
	for i := range bars {
		bars[i] = barAt(i, 200-float64(i), 2, 1_000_000)
	}
	for i := 55; i < 60; i++ {
		bars[i].Volume = 2_000_000
	}

	setups := NewBigRunnerScanner().Scan(snapshot(bars))
	if len(setups) != 1 {
		t.Fatalf("expected exactly one setup, got %d: %+v", len(setups), setups)
	}
	s := setups[0]
	if s.Kind != "TREND_BREAKDOWN" || s.Direction != models.Short {
		t.Fatalf("expected short TREND_BREAKDOWN, got %s %s", s.Direction, s.Kind)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted setup fails validation: %v", err)
	}
	if s.PartialExitTarget >= s.EntryPrice {
		t.Fatalf("short partial exit %.4f must sit below entry %.4f", s.PartialExitTarget, s.EntryPrice)
	}
}

func TestBigRunnerNeedsVolumeExpansion(t *testing.T) {
	bars := risingBars(60, 100) // trend is there, volume is flat
	if setups := NewBigRunnerScanner().Scan(snapshot(bars)); len(setups) != 0 {
		t.Fatalf("flat volume should yield no setups, got %+v", setups)
	}
}

func TestBigRunnerVolatileTapePicksATRTrail(t *testing.T) {
	bars := make([]models.Bar, 60)
	for i := range bars {
		// Wide nine-point daily ranges on a rising tape.
		bars[i] = barAt(i, 100+float64(i), 9, 1_000_000)
	}
	for i := 55; i < 60; i++ {
		bars[i].Volume = 2_000_000
	}

	setups := NewBigRunnerScanner().Scan(snapshot(bars))
	if len(setups) != 1 {
		t.Fatalf("expected exactly one setup, got %d: %+v", len(setups), setups)
	}
	if got := setups[0].TrailingMethod; got != models.TrailATR {
		t.Fatalf("expected ATR trail on volatile tape, got %s", got)
	}
}
