package engine

import (
	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"
)

// Reward-multiple rungs of the micro target ladder.
var microLadder = []struct {
	label string
	mult  float64
}{
	{"0.8R", 0.8},
	{"1.0R", 1.0},
	{"1.3R", 1.3},
}

const (
	microMinBars    = 60
	pullbackWindow  = 5
	pullbackProxPct = 0.02 // low within 2% of the fast average
	rangeWindow     = 6
	rangeMaxPct     = 0.03 // compressed when 6-bar range < 3% of close
	entryPadPct     = 0.002
	pullbackStopCap = 0.97 // stop never further than 3% below entry
)

// MicroScanner detects short-horizon, high-hit-rate geometries: pullbacks
// to a rising average and tight-range breakouts. Each scan is one complete
// pass over the snapshot; emitted setups carry the reward-multiple ladder.
type MicroScanner struct{}

func NewMicroScanner() *MicroScanner { return &MicroScanner{} }

func (s *MicroScanner) Engine() models.EngineType { return models.EngineMicro }

func (s *MicroScanner) Scan(snapshot *models.MarketSnapshot) []models.CandidateSetup {
	bars := snapshot.Bars
	if len(bars) < microMinBars {
		return nil
	}

	var out []models.CandidateSetup
	if setup, ok := s.pullbackToSupport(bars); ok {
		out = append(out, setup)
	}
	if setup, ok := s.rangeBreak(bars, models.Long); ok {
		out = append(out, setup)
	}
	if setup, ok := s.rangeBreak(bars, models.Short); ok {
		out = append(out, setup)
	}
	return out
}

// pullbackToSupport looks for an uptrend that dipped to the fast average
// and printed a bounce bar. Entry is above the bounce high, stop under the
// pullback low.
func (s *MicroScanner) pullbackToSupport(bars []models.Bar) (models.CandidateSetup, bool) {
	fast := features.SMA(bars, 20)
	slow := features.SMA(bars, 50)
	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	if fast <= slow || last.Close <= fast {
		return models.CandidateSetup{}, false
	}

	touched := false
	for i := len(bars) - pullbackWindow; i < len(bars); i++ {
		if bars[i].Low <= fast*(1+pullbackProxPct) {
			touched = true
			break
		}
	}
	bounce := last.Close > last.Open && last.Close > prev.Close
	if !touched || !bounce {
		return models.CandidateSetup{}, false
	}

	entry := last.High * (1 + entryPadPct)
	stop := features.LowestLow(bars, pullbackWindow)
	if floor := entry * pullbackStopCap; stop < floor {
		stop = floor
	}
	if stop >= entry {
		return models.CandidateSetup{}, false
	}
	return microSetup("PULLBACK_SUPPORT", models.Long, entry, stop), true
}

// rangeBreak looks for a compressed multi-bar range and stages an entry
// just beyond it: above the high for longs, below the low for shorts.
func (s *MicroScanner) rangeBreak(bars []models.Bar, dir models.TradeDirection) (models.CandidateSetup, bool) {
	fast := features.SMA(bars, 20)
	slow := features.SMA(bars, 50)
	last := bars[len(bars)-1].Close

	hh := features.HighestHigh(bars, rangeWindow)
	ll := features.LowestLow(bars, rangeWindow)
	if last <= 0 || hh <= ll {
		return models.CandidateSetup{}, false
	}
	if (hh-ll)/last >= rangeMaxPct {
		return models.CandidateSetup{}, false
	}

	if dir == models.Long {
		if !(last > fast && fast > slow) {
			return models.CandidateSetup{}, false
		}
		entry := hh * (1 + entryPadPct)
		stop := ll * (1 - entryPadPct)
		return microSetup("RANGE_BREAKOUT", models.Long, entry, stop), true
	}

	if !(last < fast && fast < slow) {
		return models.CandidateSetup{}, false
	}
	entry := ll * (1 - entryPadPct)
	stop := hh * (1 + entryPadPct)
	return microSetup("RANGE_BREAKDOWN", models.Short, entry, stop), true
}

func microSetup(kind string, dir models.TradeDirection, entry, stop float64) models.CandidateSetup {
	risk := entry - stop
	if dir == models.Short {
		risk = stop - entry
	}
	targets := make(map[string]float64, len(microLadder))
	for _, rung := range microLadder {
		if dir == models.Long {
			targets[rung.label] = entry + risk*rung.mult
		} else {
			targets[rung.label] = entry - risk*rung.mult
		}
	}
	return models.CandidateSetup{
		Engine:     models.EngineMicro,
		Kind:       kind,
		Direction:  dir,
		EntryPrice: entry,
		StopLoss:   stop,
		Targets:    targets,
	}
}

var _ domsvc.SetupScanner = (*MicroScanner)(nil)
