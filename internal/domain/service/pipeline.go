package service

import (
	"SignalDesk/internal/domain/models"
)

// RegimeClassifier declares which trade directions the macro trend admits.
// Implementations must be pure functions of the snapshot.
type RegimeClassifier interface {
	Analyze(snapshot *models.MarketSnapshot) models.RegimeResult
}

// EligibilityValidator gates a symbol on liquidity and tradability. It
// accumulates every failed check into the result's warnings.
type EligibilityValidator interface {
	Validate(symbol string, snapshot *models.MarketSnapshot, setupCategory, sector string) models.EligibilityResult
}

// SetupScanner produces candidate setups from a snapshot. The two engines
// are interchangeable behind this capability; callers only branch on the
// candidate's engine tag where scoring or assembly requires it.
type SetupScanner interface {
	Engine() models.EngineType
	Scan(snapshot *models.MarketSnapshot) []models.CandidateSetup
}

// ProbabilityScorer computes the composite success-probability estimate for
// a candidate and owns the engine-specific acceptance thresholds.
type ProbabilityScorer interface {
	Score(snapshot *models.MarketSnapshot, setup models.CandidateSetup, nominalRiskPct float64) models.ProbabilityComponents
	MeetsThreshold(probability float64, engine models.EngineType) bool
}

// SectorLookup maps a symbol to its sector label, or "UNKNOWN".
type SectorLookup interface {
	DetectSector(symbol string) string
}

// RiskGovernor owns portfolio-level admission and sizing. AdmitAndSize is
// the pipeline entry point: admission checks, sizing, and registration of
// the new position happen under one lock acquisition, so concurrent
// analyses can never over-admit against a shared limit.
type RiskGovernor interface {
	CanOpenNewTrade(symbol, sector string, direction models.TradeDirection, engine models.EngineType) models.RiskCheckResult
	CalculatePositionSize(probability, entry, stop float64) models.PositionSize
	AdmitAndSize(symbol, sector string, direction models.TradeDirection, engine models.EngineType, probability, entry, stop float64) (models.PositionSize, models.RiskCheckResult)
	UpdateVIX(v float64)
	Release(symbol string)
	State() models.PortfolioState
}
