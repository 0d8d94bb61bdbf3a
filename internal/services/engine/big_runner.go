package engine

import (
	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"
)

const (
	runnerMinBars      = 60
	runnerLookback     = 52 // positional high/low window
	runnerEntryWindow  = 10
	runnerStopATRMult  = 2.0
	runnerPartialMult  = 2.5 // partial exit at 2.5R
	runnerProximityPct = 0.05
	runnerMinROC20     = 8.0 // percent over 20 bars
	runnerVolExpansion = 1.2
	runnerATRTrailPct  = 2.5 // ATR/close above this prefers the ATR trail
)

// BigRunnerScanner detects positional trend-continuation geometries: price
// pressing a multi-week extreme with momentum and volume expansion behind
// it. Emitted setups carry a partial-exit level and a trailing method for
// the remainder instead of a fixed ladder.
type BigRunnerScanner struct{}

func NewBigRunnerScanner() *BigRunnerScanner { return &BigRunnerScanner{} }

func (s *BigRunnerScanner) Engine() models.EngineType { return models.EngineBigRunner }

func (s *BigRunnerScanner) Scan(snapshot *models.MarketSnapshot) []models.CandidateSetup {
	bars := snapshot.Bars
	if len(bars) < runnerMinBars {
		return nil
	}

	var out []models.CandidateSetup
	if setup, ok := s.trendContinuation(bars, models.Long); ok {
		out = append(out, setup)
	}
	if setup, ok := s.trendContinuation(bars, models.Short); ok {
		out = append(out, setup)
	}
	return out
}

func (s *BigRunnerScanner) trendContinuation(bars []models.Bar, dir models.TradeDirection) (models.CandidateSetup, bool) {
	fast := features.SMA(bars, 20)
	slow := features.SMA(bars, 50)
	last := bars[len(bars)-1].Close
	roc20 := features.ROC(bars, 20)
	atr := features.ATR(bars, 14)
	if last <= 0 || atr <= 0 {
		return models.CandidateSetup{}, false
	}

	// Volume has to expand into the move, in either direction.
	base := features.AvgVolume(bars, 20)
	if base <= 0 || features.AvgVolume(bars, 5)/base < runnerVolExpansion {
		return models.CandidateSetup{}, false
	}

	lookback := runnerLookback
	if len(bars) < lookback {
		lookback = len(bars)
	}

	var entry, stop float64
	var kind string
	if dir == models.Long {
		high := features.HighestHigh(bars, lookback)
		pressing := high > 0 && last >= high*(1-runnerProximityPct)
		if !(fast > slow && roc20 >= runnerMinROC20 && pressing) {
			return models.CandidateSetup{}, false
		}
		entry = features.HighestHigh(bars, runnerEntryWindow) * (1 + entryPadPct)
		stop = entry - runnerStopATRMult*atr
		kind = "TREND_CONTINUATION"
	} else {
		low := features.LowestLow(bars, lookback)
		pressing := low > 0 && last <= low*(1+runnerProximityPct)
		if !(fast < slow && roc20 <= -runnerMinROC20 && pressing) {
			return models.CandidateSetup{}, false
		}
		entry = features.LowestLow(bars, runnerEntryWindow) * (1 - entryPadPct)
		stop = entry + runnerStopATRMult*atr
		kind = "TREND_BREAKDOWN"
	}
	if entry <= 0 || stop <= 0 {
		return models.CandidateSetup{}, false
	}

	risk := entry - stop
	partial := entry + runnerPartialMult*risk
	if dir == models.Short {
		risk = stop - entry
		partial = entry - runnerPartialMult*risk
	}
	if risk <= 0 || partial <= 0 {
		return models.CandidateSetup{}, false
	}

	return models.CandidateSetup{
		Engine:            models.EngineBigRunner,
		Kind:              kind,
		Direction:         dir,
		EntryPrice:        entry,
		StopLoss:          stop,
		PartialExitTarget: partial,
		TrailingMethod:    s.pickTrail(bars, last, atr),
	}, true
}

// pickTrail chooses how the post-partial remainder is managed: volatile
// tapes get the wider ATR trail, orderly ones trail swing structure.
func (s *BigRunnerScanner) pickTrail(bars []models.Bar, last, atr float64) models.TrailingMethod {
	if last > 0 && atr/last*100 >= runnerATRTrailPct {
		return models.TrailATR
	}
	return models.TrailStructure
}

var _ domsvc.SetupScanner = (*BigRunnerScanner)(nil)
