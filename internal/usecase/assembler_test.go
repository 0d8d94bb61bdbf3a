package usecase

import (
	"testing"

	"SignalDesk/internal/domain/models"
)

func components(trend, final float64) models.ProbabilityComponents {
	return models.ProbabilityComponents{
		MarketScore:      final,
		TrendScore:       trend,
		MomentumScore:    final,
		VolumeScore:      final,
		RiskScore:        final,
		FinalProbability: final,
	}
}

func TestTrendBands(t *testing.T) {
	cases := []struct {
		score float64
		want  models.TrendStrength
	}{
		{75.0, models.TrendStrong},
		{74.9, models.TrendMedium},
		{50.0, models.TrendMedium},
		{49.9, models.TrendWeak},
		{0, models.TrendWeak},
		{100, models.TrendStrong},
	}
	for _, tc := range cases {
		if got := trendBand(tc.score); got != tc.want {
			t.Fatalf("trendBand(%.1f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAssembleMicroSignal(t *testing.T) {
	snap := &models.MarketSnapshot{Symbol: "TESTSTOCK", Bars: uptrendSeries(80), VIX: 15}
	regime := models.RegimeResult{Direction: models.DirectionUp, EligibleForLong: true, IndexAligned: true}
	setup := microCandidate(models.Long)

	s, err := NewSignalAssembler().Assemble(snap, regime, setup, components(80, 72), models.PositionSize{Shares: 1840, RiskPct: 0.92}, "IT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Engine != models.EngineMicro || s.EngineLabel != "MICRO-PROFIT" {
		t.Fatalf("engine tagging wrong: %s / %s", s.Engine, s.EngineLabel)
	}
	if s.ExpectedHold != "Swing" || s.RunnerMode || s.TrailMethod != "" {
		t.Fatalf("micro signal carries runner fields: %+v", s)
	}
	if s.Target != setup.Targets["1.0R"] || len(s.Targets) != 3 {
		t.Fatalf("micro target mapping wrong: target %.2f, ladder %v", s.Target, s.Targets)
	}
	if !s.IndexAligned || s.Trend != models.TrendStrong {
		t.Fatalf("context fields wrong: aligned=%v trend=%s", s.IndexAligned, s.Trend)
	}
	if s.CurrentPrice != snap.LastClose() {
		t.Fatalf("current price %.2f, want %.2f", s.CurrentPrice, snap.LastClose())
	}
}

func TestAssembleBigRunnerSignal(t *testing.T) {
	snap := &models.MarketSnapshot{Symbol: "TESTSTOCK", Bars: uptrendSeries(80), VIX: 15}
	regime := models.RegimeResult{Direction: models.DirectionUp, EligibleForLong: true}
	setup := models.CandidateSetup{
		Engine:            models.EngineBigRunner,
		Kind:              "TREND_CONTINUATION",
		Direction:         models.Long,
		EntryPrice:        180,
		StopLoss:          172,
		PartialExitTarget: 200,
		TrailingMethod:    models.TrailATR,
	}

	s, err := NewSignalAssembler().Assemble(snap, regime, setup, components(60, 68), models.PositionSize{Shares: 100, RiskPct: 0.68}, "ENERGY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.EngineLabel != "BIG-RUNNER" || s.ExpectedHold != "Position" {
		t.Fatalf("runner tagging wrong: %s / %s", s.EngineLabel, s.ExpectedHold)
	}
	if !s.RunnerMode || s.TrailMethod != models.TrailATR {
		t.Fatalf("runner mode fields wrong: %+v", s)
	}
	if s.Target != 200 || s.Targets != nil {
		t.Fatalf("runner target mapping wrong: target %.2f, ladder %v", s.Target, s.Targets)
	}
	if s.Trend != models.TrendMedium {
		t.Fatalf("trend band = %s, want Medium", s.Trend)
	}
}

func TestAssembleRejectsContractViolations(t *testing.T) {
	snap := &models.MarketSnapshot{Symbol: "TESTSTOCK", Bars: uptrendSeries(80)}
	regime := models.RegimeResult{EligibleForLong: true}
	setup := microCandidate(models.Long)

	if _, err := NewSignalAssembler().Assemble(snap, regime, setup, components(50, 70), models.PositionSize{Shares: 0, RiskPct: 0.5}, "IT"); err == nil {
		t.Fatal("zero shares must be rejected")
	}
	if _, err := NewSignalAssembler().Assemble(snap, regime, setup, components(50, 101), models.PositionSize{Shares: 10, RiskPct: 0.5}, "IT"); err == nil {
		t.Fatal("probability above 100 must be rejected")
	}

	broken := setup
	broken.StopLoss = broken.EntryPrice + 1 // long stop above entry
	if _, err := NewSignalAssembler().Assemble(snap, regime, broken, components(50, 70), models.PositionSize{Shares: 10, RiskPct: 0.5}, "IT"); err == nil {
		t.Fatal("inverted geometry must be rejected")
	}
}
