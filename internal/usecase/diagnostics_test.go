package usecase

import (
	"context"
	"fmt"
	"math"
	"testing"

	"SignalDesk/internal/domain/models"
	"SignalDesk/internal/services/analytics"
)

type diagSource struct {
	bars     []models.Bar
	index    []models.Bar
	indexErr error
	vix      float64
	vixErr   error
}

func (s *diagSource) FetchStockData(_ context.Context, symbol string) (*models.MarketSnapshot, error) {
	if s.bars == nil {
		return nil, nil
	}
	return &models.MarketSnapshot{Symbol: symbol, Bars: s.bars}, nil
}

func (s *diagSource) FetchIndexData(_ context.Context, _ string) ([]models.Bar, error) {
	return s.index, s.indexErr
}

func (s *diagSource) CurrentVIX(_ context.Context) (float64, error) { return s.vix, s.vixErr }

func newDiagUseCase(source *diagSource) *DiagnosticsUseCase {
	return NewDiagnosticsUseCase(
		source,
		analytics.NewRegimeFilter(),
		analytics.NewEligibilityValidator(1_000_000),
		&stubSectors{sector: "IT"},
	)
}

func TestDiagnoseComputesAllSections(t *testing.T) {
	src := &diagSource{bars: uptrendSeries(60), index: uptrendSeries(60), vix: 15}
	uc := newDiagUseCase(src)

	res, err := uc.Diagnose(context.Background(), DiagnosticsParams{Symbol: "RELIANCE"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if res.Errors != nil {
		t.Fatalf("unexpected section errors: %v", res.Errors)
	}
	if res.Sector != "IT" {
		t.Fatalf("sector = %q, want lookup fallback IT", res.Sector)
	}
	if res.VIX != 15 {
		t.Fatalf("vix = %v", res.VIX)
	}
	if res.Regime == nil || res.Regime.Direction != models.DirectionUp {
		t.Fatalf("regime = %+v, want UP", res.Regime)
	}
	if res.Eligibility == nil || !res.Eligibility.IsEligible {
		t.Fatalf("eligibility = %+v, want eligible", res.Eligibility)
	}
	ind := res.Indicators
	if ind == nil {
		t.Fatalf("indicators missing")
	}
	// uptrendSeries bars carry a fixed 2-point spread, so ATR(14) is exactly 2
	if math.Abs(ind.ATR14-2) > 1e-9 {
		t.Fatalf("ATR14 = %v, want 2", ind.ATR14)
	}
	if ind.SMA20 <= ind.SMA50 {
		t.Fatalf("rising series must have SMA20 (%v) above SMA50 (%v)", ind.SMA20, ind.SMA50)
	}
	if ind.ROC20 <= 0 || ind.TrendSlope20 <= 0 {
		t.Fatalf("rising series must score positive momentum: roc=%v slope=%v", ind.ROC20, ind.TrendSlope20)
	}
	if ind.AvgVolume20 != 1_000_000 {
		t.Fatalf("AvgVolume20 = %v", ind.AvgVolume20)
	}
}

func TestDiagnoseNoMarketData(t *testing.T) {
	uc := newDiagUseCase(&diagSource{})

	res, err := uc.Diagnose(context.Background(), DiagnosticsParams{Symbol: "GHOST"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if res.Errors["bars"] == "" {
		t.Fatalf("expected bars error, got %v", res.Errors)
	}
	if res.Regime != nil || res.Indicators != nil {
		t.Fatalf("sections must be nil without data")
	}
}

func TestDiagnoseDegradesOnIndexFailure(t *testing.T) {
	src := &diagSource{
		bars:     uptrendSeries(60),
		indexErr: fmt.Errorf("provider timeout"),
		vix:      12,
	}
	uc := newDiagUseCase(src)

	res, err := uc.Diagnose(context.Background(), DiagnosticsParams{Symbol: "TCS"})
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if res.Errors["index"] == "" {
		t.Fatalf("expected index error recorded, got %v", res.Errors)
	}
	if res.Regime == nil || !res.Regime.Tradeable() {
		t.Fatalf("regime must degrade to symbol-only analysis, got %+v", res.Regime)
	}
	if res.Regime.IndexAligned {
		t.Fatalf("no index data, must not claim alignment")
	}
}

func TestDiagnoseRequiresSymbol(t *testing.T) {
	uc := newDiagUseCase(&diagSource{})
	if _, err := uc.Diagnose(context.Background(), DiagnosticsParams{}); err == nil {
		t.Fatalf("expected error for empty symbol")
	}
}
