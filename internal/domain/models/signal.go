package models

import "time"

// TrendStrength buckets the trend sub-score of an approved signal.
type TrendStrength string

const (
	TrendStrong TrendStrength = "Strong"
	TrendMedium TrendStrength = "Medium"
	TrendWeak   TrendStrength = "Weak"
)

// TradeSignal is the final immutable record produced for one approved,
// sized candidate. Component scores are retained for auditability.
type TradeSignal struct {
	Symbol       string
	GeneratedAt  time.Time
	Engine       EngineType
	EngineLabel  string // "MICRO-PROFIT" | "BIG-RUNNER"
	Direction    TradeDirection
	SetupKind    string
	Probability  float64
	Entry        float64
	StopLoss     float64
	Target       float64
	Targets      map[string]float64 // micro ladder; nil for big runners
	RunnerMode   bool               // big-runner partial-exit + trail enabled
	TrailMethod  TrailingMethod     // empty for micro signals
	RiskPct      float64
	Shares       int
	ExpectedHold string // "Swing" | "Position"
	Sector       string
	IndexAligned bool
	Trend        TrendStrength
	CurrentPrice float64
	Components   ProbabilityComponents
}

// AnalysisStatus is the terminal shape of one per-symbol pipeline run.
type AnalysisStatus string

const (
	StatusNoData      AnalysisStatus = "NO_DATA"
	StatusNoTrade     AnalysisStatus = "NO_TRADE"
	StatusNotEligible AnalysisStatus = "NOT_ELIGIBLE"
	StatusSuccess     AnalysisStatus = "SUCCESS"
)

// AnalysisResult aggregates the outcome of analyzing one symbol. Signals may
// be empty on SUCCESS: regime and eligibility passed but no candidate
// cleared the probability or risk gates.
type AnalysisResult struct {
	Symbol      string
	Status      AnalysisStatus
	Regime      *RegimeResult
	Reasons     []string // eligibility warnings on NOT_ELIGIBLE
	Signals     []TradeSignal
	VIX         float64
	LastClose   float64
	GeneratedAt time.Time
}
