package models

import "time"

// IndicatorSet is the raw indicator readout behind a diagnostics call.
type IndicatorSet struct {
	SMA20             float64
	SMA50             float64
	ATR14             float64
	ROC20             float64
	AvgVolume20       float64
	AvgTurnover20     float64
	AvgRangePct20     float64
	TrendSlope20      float64
	RealizedVolAnnual float64
}

// SymbolDiagnostics explains what the pipeline sees for one symbol without
// producing a signal: regime, eligibility, and the indicators both derive
// from. Sections that could not be computed carry an entry in Errors.
type SymbolDiagnostics struct {
	Symbol      string
	Sector      string
	LastClose   float64
	VIX         float64
	Regime      *RegimeResult
	Eligibility *EligibilityResult
	Indicators  *IndicatorSet
	Errors      map[string]string
	GeneratedAt time.Time
}
