package models

// Direction is the macro trend classification of a regime check.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// TradeDirection is the side of a candidate setup.
type TradeDirection string

const (
	Long  TradeDirection = "LONG"
	Short TradeDirection = "SHORT"
)

// RegimeResult classifies the market trend and declares which trade
// directions are currently admissible. Derived fresh per analysis call.
type RegimeResult struct {
	Direction        Direction
	Score            float64 // 0..100
	EligibleForLong  bool
	EligibleForShort bool
	IndexAligned     bool // symbol trend agrees with index trend
}

// AllowsDirection reports whether the regime admits trades on the given side.
func (r RegimeResult) AllowsDirection(d TradeDirection) bool {
	if d == Long {
		return r.EligibleForLong
	}
	return r.EligibleForShort
}

// Tradeable reports whether any direction is admissible at all.
func (r RegimeResult) Tradeable() bool {
	return r.EligibleForLong || r.EligibleForShort
}
