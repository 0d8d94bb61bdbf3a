package analytics

import (
	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"
)

const (
	fastWindow = 20
	slowWindow = 50
)

// RegimeFilter classifies the macro trend by comparing the symbol's moving
// average structure and slope against the index series. Stateless; every
// call derives a fresh result from the snapshot alone.
type RegimeFilter struct{}

func NewRegimeFilter() *RegimeFilter { return &RegimeFilter{} }

func (f *RegimeFilter) Analyze(snapshot *models.MarketSnapshot) models.RegimeResult {
	symbolDir, symbolStrength := classifyTrend(snapshot.Bars)

	// Without index data we degrade to symbol-only classification and
	// never claim index alignment.
	if !snapshot.HasIndex() {
		return models.RegimeResult{
			Direction:        symbolDir,
			Score:            symbolStrength,
			EligibleForLong:  symbolDir == models.DirectionUp,
			EligibleForShort: symbolDir == models.DirectionDown,
			IndexAligned:     false,
		}
	}

	indexDir, indexStrength := classifyTrend(snapshot.Index)
	aligned := symbolDir == indexDir && symbolDir != models.DirectionNeutral

	// The index vetoes counter-trend entries: longs are off when the index
	// is falling, shorts are off when it is rising.
	return models.RegimeResult{
		Direction:        symbolDir,
		Score:            features.Clamp(0.6*symbolStrength+0.4*indexStrength, 0, 100),
		EligibleForLong:  symbolDir == models.DirectionUp && indexDir != models.DirectionDown,
		EligibleForShort: symbolDir == models.DirectionDown && indexDir != models.DirectionUp,
		IndexAligned:     aligned,
	}
}

// classifyTrend grades one bar series: direction from close vs. moving
// average structure, strength 0..100 from slope magnitude and structure.
func classifyTrend(bars []models.Bar) (models.Direction, float64) {
	if len(bars) < slowWindow {
		return models.DirectionNeutral, 0
	}
	last := bars[len(bars)-1].Close
	fast := features.SMA(bars, fastWindow)
	slow := features.SMA(bars, slowWindow)
	slope := features.TrendSlope(bars, fastWindow)

	strength := features.Clamp(50+slope*25, 0, 100)

	switch {
	case last > fast && fast > slow && slope > 0:
		return models.DirectionUp, strength
	case last < fast && fast < slow && slope < 0:
		return models.DirectionDown, features.Clamp(100-strength, 0, 100)
	default:
		return models.DirectionNeutral, features.Clamp(strength, 25, 75)
	}
}

var _ domsvc.RegimeClassifier = (*RegimeFilter)(nil)
