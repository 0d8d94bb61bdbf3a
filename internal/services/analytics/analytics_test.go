package analytics

import (
	"math"
	"strings"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
)

func bar(i int, close, spread, volume float64) models.Bar {
	return models.Bar{
		Date:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Open:   close - spread/4,
		High:   close + spread/2,
		Low:    close - spread/2,
		Close:  close,
		Volume: volume,
	}
}

func trending(n int, start, step float64) []models.Bar {
	out := make([]models.Bar, n)
	for i := range out {
		out[i] = bar(i, start+step*float64(i), 2, 1_000_000)
	}
	return out
}

func TestRegimeFilterDirections(t *testing.T) {
	f := NewRegimeFilter()

	up := f.Analyze(&models.MarketSnapshot{Bars: trending(80, 100, 1)})
	if up.Direction != models.DirectionUp || !up.EligibleForLong || up.EligibleForShort {
		t.Fatalf("uptrend misclassified: %+v", up)
	}
	if up.IndexAligned {
		t.Fatal("no index data must never claim alignment")
	}

	down := f.Analyze(&models.MarketSnapshot{Bars: trending(80, 200, -1)})
	if down.Direction != models.DirectionDown || !down.EligibleForShort || down.EligibleForLong {
		t.Fatalf("downtrend misclassified: %+v", down)
	}

	flat := f.Analyze(&models.MarketSnapshot{Bars: trending(80, 100, 0)})
	if flat.Direction != models.DirectionNeutral || flat.Tradeable() {
		t.Fatalf("flat tape misclassified: %+v", flat)
	}
}

func TestRegimeFilterIndexVeto(t *testing.T) {
	f := NewRegimeFilter()

	// Symbol rising against a falling index: long eligibility is vetoed.
	res := f.Analyze(&models.MarketSnapshot{
		Bars:  trending(80, 100, 1),
		Index: trending(80, 200, -1),
	})
	if res.EligibleForLong {
		t.Fatal("falling index must veto longs")
	}
	if res.IndexAligned {
		t.Fatal("opposing trends are not aligned")
	}

	// Agreeing trends align.
	res = f.Analyze(&models.MarketSnapshot{
		Bars:  trending(80, 100, 1),
		Index: trending(80, 100, 1),
	})
	if !res.EligibleForLong || !res.IndexAligned {
		t.Fatalf("aligned uptrends misclassified: %+v", res)
	}
}

func TestRegimeFilterShortHistoryIsNeutral(t *testing.T) {
	res := NewRegimeFilter().Analyze(&models.MarketSnapshot{Bars: trending(30, 100, 1)})
	if res.Direction != models.DirectionNeutral || res.Tradeable() {
		t.Fatalf("short history must be neutral: %+v", res)
	}
}

func TestEligibilityAccumulatesAllWarnings(t *testing.T) {
	v := NewEligibilityValidator(1e9)

	// Cheap, illiquid, thin-turnover series: several checks fail at once.
	bars := trending(80, 20, 0.1)
	for i := 70; i < 80; i++ {
		bars[i].Volume = 0
	}
	res := v.Validate("PENNY", &models.MarketSnapshot{Bars: bars}, "", "IT")
	if res.IsEligible {
		t.Fatal("penny stock passed eligibility")
	}
	if len(res.Warnings) < 3 {
		t.Fatalf("expected multiple accumulated warnings, got %v", res.Warnings)
	}
}

func TestEligibilityShortHistoryStillRunsWindowChecks(t *testing.T) {
	v := NewEligibilityValidator(1e9)

	// 30 bars: below the history floor but enough for the 20-bar windows,
	// so the cheap price and thin turnover must be reported alongside it.
	res := v.Validate("NEWLIST", &models.MarketSnapshot{Bars: trending(30, 20, 0.1)}, "", "IT")
	if res.IsEligible {
		t.Fatal("short cheap series passed eligibility")
	}
	if len(res.Warnings) < 3 {
		t.Fatalf("window checks must accumulate past the history warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "insufficient history") {
		t.Fatalf("unexpected first warning: %s", res.Warnings[0])
	}

	// Shorter than one window there is nothing left to measure.
	res = v.Validate("NEWLIST", &models.MarketSnapshot{Bars: trending(10, 100, 1)}, "", "IT")
	if res.IsEligible || len(res.Warnings) != 1 {
		t.Fatalf("sub-window history must report only the history warning: %+v", res)
	}
}

func TestEligibilitySectorTurnoverFactor(t *testing.T) {
	bars := trending(80, 100, 1)
	// Average turnover of the last 20 sessions, close ~170 at 1M shares.
	turnover := 0.0
	for i := 60; i < 80; i++ {
		turnover += bars[i].Close * bars[i].Volume
	}
	turnover /= 20

	// Floor below plain turnover but above it after the 1.5x realty factor.
	v := NewEligibilityValidator(turnover * 0.8)
	if res := v.Validate("X", &models.MarketSnapshot{Bars: bars}, "", "IT"); !res.IsEligible {
		t.Fatalf("IT floor should pass: %v", res.Warnings)
	}
	if res := v.Validate("X", &models.MarketSnapshot{Bars: bars}, "", "REALTY"); res.IsEligible {
		t.Fatal("REALTY factor should raise the floor past this turnover")
	}
}

func TestEligibilityPassesHealthySeries(t *testing.T) {
	v := NewEligibilityValidator(1_000)
	res := v.Validate("GOOD", &models.MarketSnapshot{Bars: trending(80, 100, 1)}, "", "IT")
	if !res.IsEligible || len(res.Warnings) != 0 {
		t.Fatalf("healthy series rejected: %+v", res)
	}
}

func TestCombineWeights(t *testing.T) {
	c := models.ProbabilityComponents{
		MarketScore:   80,
		TrendScore:    60,
		MomentumScore: 40,
		VolumeScore:   20,
		RiskScore:     100,
	}
	want := 0.25*80 + 0.25*60 + 0.20*40 + 0.15*20 + 0.15*100
	if got := Combine(c); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Combine = %.4f, want %.4f", got, want)
	}

	// Saturated inputs clamp at the bounds.
	all := func(v float64) models.ProbabilityComponents {
		return models.ProbabilityComponents{MarketScore: v, TrendScore: v, MomentumScore: v, VolumeScore: v, RiskScore: v}
	}
	if got := Combine(all(100)); got != 100 {
		t.Fatalf("Combine(all 100) = %.4f", got)
	}
	if got := Combine(all(0)); got != 0 {
		t.Fatalf("Combine(all 0) = %.4f", got)
	}
}

func TestMeetsThresholdBoundaries(t *testing.T) {
	s := NewProbabilityScorer()
	cases := []struct {
		prob   float64
		engine models.EngineType
		want   bool
	}{
		{70.0, models.EngineMicro, true},
		{69.9, models.EngineMicro, false},
		{65.0, models.EngineBigRunner, true},
		{64.9, models.EngineBigRunner, false},
		{65.0, models.EngineMicro, false}, // runner threshold does not leak
	}
	for _, tc := range cases {
		if got := s.MeetsThreshold(tc.prob, tc.engine); got != tc.want {
			t.Fatalf("MeetsThreshold(%.1f, %s) = %v, want %v", tc.prob, tc.engine, got, tc.want)
		}
	}
}

func TestScoreComponentsInRange(t *testing.T) {
	s := NewProbabilityScorer()
	snap := &models.MarketSnapshot{
		Bars:  trending(80, 100, 1),
		Index: trending(80, 100, 1),
	}
	setup := models.CandidateSetup{
		Engine:     models.EngineMicro,
		Kind:       "RANGE_BREAKOUT",
		Direction:  models.Long,
		EntryPrice: 180,
		StopLoss:   175,
		Targets:    map[string]float64{"0.8R": 184, "1.0R": 185, "1.3R": 186.5},
	}

	c := s.Score(snap, setup, 1.0)
	for name, v := range map[string]float64{
		"market":   c.MarketScore,
		"trend":    c.TrendScore,
		"momentum": c.MomentumScore,
		"volume":   c.VolumeScore,
		"risk":     c.RiskScore,
		"final":    c.FinalProbability,
	} {
		if v < 0 || v > 100 {
			t.Fatalf("%s score %.2f out of [0,100]", name, v)
		}
	}
	if math.Abs(c.FinalProbability-Combine(c)) > 1e-9 {
		t.Fatalf("final %.4f does not match Combine %.4f", c.FinalProbability, Combine(c))
	}

	// Aligned long in an uptrend must score better than the counter-trend
	// short on the same tape.
	short := setup
	short.Direction = models.Short
	short.EntryPrice, short.StopLoss = 175, 180
	short.Targets = map[string]float64{"0.8R": 171, "1.0R": 170, "1.3R": 168.5}
	if cs := s.Score(snap, short, 1.0); cs.FinalProbability >= c.FinalProbability {
		t.Fatalf("counter-trend short scored %.2f >= aligned long %.2f", cs.FinalProbability, c.FinalProbability)
	}
}

func TestRiskScoreDegradesWithOversizedRisk(t *testing.T) {
	s := NewProbabilityScorer()
	setup := models.CandidateSetup{
		Engine:     models.EngineMicro,
		Direction:  models.Long,
		EntryPrice: 100,
		StopLoss:   95,
		Targets:    map[string]float64{"1.0R": 105},
	}
	base := s.riskScore(setup, 1.0)
	heavy := s.riskScore(setup, 2.0)
	if heavy >= base {
		t.Fatalf("oversized risk did not degrade: %.2f >= %.2f", heavy, base)
	}
}
