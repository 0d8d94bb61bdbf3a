package models

// RiskCheckResult is the governor's binary admission decision. Reason is
// populated only when the trade is rejected, with the first violated limit.
type RiskCheckResult struct {
	Allowed bool
	Reason  string
}

// OpenPosition is one admitted trade tracked by the risk governor.
type OpenPosition struct {
	Symbol    string
	Sector    string
	Direction TradeDirection
	Engine    EngineType
	RiskPct   float64
}

// PositionSize is the sizing output for an admitted candidate.
type PositionSize struct {
	Shares  int
	RiskPct float64
}

// PortfolioState is a point-in-time copy of the governor's book, safe to
// hand to callers without holding the governor lock.
type PortfolioState struct {
	Capital   float64
	VIX       float64
	Positions []OpenPosition
}
