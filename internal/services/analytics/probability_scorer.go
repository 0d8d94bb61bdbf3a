package analytics

import (
	"math"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"
)

// Component weights of the composite probability. Pipeline-level constants;
// the composite is a pure weighted sum of the five sub-scores.
const (
	weightMarket   = 0.25
	weightTrend    = 0.25
	weightMomentum = 0.20
	weightVolume   = 0.15
	weightRisk     = 0.15
)

// Engine-specific acceptance thresholds. The threshold predicate is the only
// sanctioned rejection path at the scoring stage.
const (
	microThreshold     = 70.0
	bigRunnerThreshold = 65.0
)

// ProbabilityScorer estimates the success probability of a candidate setup
// from five independent analyses of the snapshot: regime alignment, trend
// strength, short-term momentum, volume confirmation, and reward/risk
// geometry quality.
type ProbabilityScorer struct{}

func NewProbabilityScorer() *ProbabilityScorer { return &ProbabilityScorer{} }

func (s *ProbabilityScorer) Score(snapshot *models.MarketSnapshot, setup models.CandidateSetup, nominalRiskPct float64) models.ProbabilityComponents {
	c := models.ProbabilityComponents{
		MarketScore:   s.marketScore(snapshot, setup.Direction),
		TrendScore:    s.trendScore(snapshot.Bars, setup.Direction),
		MomentumScore: s.momentumScore(snapshot.Bars, setup.Direction),
		VolumeScore:   s.volumeScore(snapshot.Bars),
		RiskScore:     s.riskScore(setup, nominalRiskPct),
	}
	c.FinalProbability = Combine(c)
	return c
}

// Combine folds the five sub-scores into the composite with the fixed
// weights. Deterministic and order-independent: same inputs, same output.
func Combine(c models.ProbabilityComponents) float64 {
	sum := weightMarket*c.MarketScore +
		weightTrend*c.TrendScore +
		weightMomentum*c.MomentumScore +
		weightVolume*c.VolumeScore +
		weightRisk*c.RiskScore
	return features.Clamp(sum, 0, 100)
}

// MeetsThreshold is the sole scoring-stage gate: micro setups need 70,
// big runners 65.
func (s *ProbabilityScorer) MeetsThreshold(probability float64, engine models.EngineType) bool {
	if engine == models.EngineMicro {
		return probability >= microThreshold
	}
	return probability >= bigRunnerThreshold
}

func (s *ProbabilityScorer) marketScore(snapshot *models.MarketSnapshot, dir models.TradeDirection) float64 {
	if !snapshot.HasIndex() {
		return 50 // no index evidence either way
	}
	indexDir, strength := classifyTrend(snapshot.Index)
	switch {
	case dir == models.Long && indexDir == models.DirectionUp:
		return features.Clamp(50+strength/2, 0, 100)
	case dir == models.Short && indexDir == models.DirectionDown:
		return features.Clamp(50+strength/2, 0, 100)
	case indexDir == models.DirectionNeutral:
		return 50
	default:
		return features.Clamp(50-strength/2, 0, 100)
	}
}

func (s *ProbabilityScorer) trendScore(bars []models.Bar, dir models.TradeDirection) float64 {
	symbolDir, strength := classifyTrend(bars)
	switch {
	case dir == models.Long && symbolDir == models.DirectionUp:
		return strength
	case dir == models.Short && symbolDir == models.DirectionDown:
		return strength
	case symbolDir == models.DirectionNeutral:
		return features.Clamp(strength, 25, 60)
	default:
		return features.Clamp(100-strength, 0, 40)
	}
}

func (s *ProbabilityScorer) momentumScore(bars []models.Bar, dir models.TradeDirection) float64 {
	roc10 := features.ROC(bars, 10)
	roc20 := features.ROC(bars, 20)
	blended := 0.6*roc10 + 0.4*roc20
	if dir == models.Short {
		blended = -blended
	}
	// ±10% move over the window saturates the score.
	return features.Clamp(50+blended*5, 0, 100)
}

func (s *ProbabilityScorer) volumeScore(bars []models.Bar) float64 {
	recent := features.AvgVolume(bars, 5)
	base := features.AvgVolume(bars, 20)
	if base <= 0 {
		return 0
	}
	ratio := recent / base
	// ratio 1.0 = neutral 50; 2x expansion saturates.
	return features.Clamp(50*ratio, 0, 100)
}

func (s *ProbabilityScorer) riskScore(setup models.CandidateSetup, nominalRiskPct float64) float64 {
	risk := math.Abs(setup.EntryPrice - setup.StopLoss)
	reward := math.Abs(setup.PrimaryTarget() - setup.EntryPrice)
	if risk <= 0 {
		return 0
	}
	rr := reward / risk
	score := features.Clamp(rr/2.5*100, 0, 100)
	// Oversized per-trade risk degrades geometry quality.
	if nominalRiskPct > 1.0 {
		score = features.Clamp(score-(nominalRiskPct-1.0)*10, 0, 100)
	}
	return score
}

var _ domsvc.ProbabilityScorer = (*ProbabilityScorer)(nil)
