package usecase

import (
	"fmt"
	"time"

	"SignalDesk/internal/domain/models"
)

// Trend sub-score bands for the signal's trend label.
const (
	trendStrongMin = 75.0
	trendMediumMin = 50.0
)

// SignalAssembler turns an approved, sized candidate into the final signal
// record. Pure construction: it never consults portfolio state or market
// data beyond what it is handed, and it re-checks the contract so a broken
// upstream stage cannot leak a malformed signal out of the pipeline.
type SignalAssembler struct {
	now func() time.Time
}

func NewSignalAssembler() *SignalAssembler {
	return &SignalAssembler{now: time.Now}
}

func (a *SignalAssembler) Assemble(
	snapshot *models.MarketSnapshot,
	regime models.RegimeResult,
	setup models.CandidateSetup,
	components models.ProbabilityComponents,
	size models.PositionSize,
	sector string,
) (*models.TradeSignal, error) {
	if err := setup.Validate(); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", snapshot.Symbol, err)
	}
	if components.FinalProbability < 0 || components.FinalProbability > 100 {
		return nil, fmt.Errorf("assemble %s: probability %.2f out of range", snapshot.Symbol, components.FinalProbability)
	}
	if size.Shares <= 0 {
		return nil, fmt.Errorf("assemble %s: non-positive share count %d", snapshot.Symbol, size.Shares)
	}

	s := &models.TradeSignal{
		Symbol:       snapshot.Symbol,
		GeneratedAt:  a.now().UTC(),
		Engine:       setup.Engine,
		EngineLabel:  setup.Engine.Label(),
		Direction:    setup.Direction,
		SetupKind:    setup.Kind,
		Probability:  components.FinalProbability,
		Entry:        setup.EntryPrice,
		StopLoss:     setup.StopLoss,
		Target:       setup.PrimaryTarget(),
		RiskPct:      size.RiskPct,
		Shares:       size.Shares,
		Sector:       sector,
		IndexAligned: regime.IndexAligned,
		Trend:        trendBand(components.TrendScore),
		CurrentPrice: snapshot.LastClose(),
		Components:   components,
	}

	switch setup.Engine {
	case models.EngineMicro:
		s.ExpectedHold = "Swing"
		s.Targets = setup.Targets
	case models.EngineBigRunner:
		s.ExpectedHold = "Position"
		s.RunnerMode = true
		s.TrailMethod = setup.TrailingMethod
	}
	return s, nil
}

func trendBand(score float64) models.TrendStrength {
	switch {
	case score >= trendStrongMin:
		return models.TrendStrong
	case score >= trendMediumMin:
		return models.TrendMedium
	default:
		return models.TrendWeak
	}
}
