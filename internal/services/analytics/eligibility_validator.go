package analytics

import (
	"fmt"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"
)

const (
	eligibilityWindow = 20
	minHistoryBars    = 60
	minTradablePrice  = 50.0
	maxAvgRangePct    = 8.0
	minAvgRangePct    = 0.5
	maxStaleSessions  = 2
)

// sectorTurnoverFactor raises the turnover floor for sectors with thin or
// erratic order books.
var sectorTurnoverFactor = map[string]float64{
	"REALTY": 1.5,
	"METALS": 1.25,
}

// EligibilityValidator gates symbols on liquidity and tradability before
// any scanning happens. Unlike the risk governor it never consults
// portfolio state, and it reports every failed check instead of stopping
// at the first one.
type EligibilityValidator struct {
	minTurnover float64 // currency units per session, averaged
}

func NewEligibilityValidator(minTurnover float64) *EligibilityValidator {
	return &EligibilityValidator{minTurnover: minTurnover}
}

func (v *EligibilityValidator) Validate(symbol string, snapshot *models.MarketSnapshot, setupCategory, sector string) models.EligibilityResult {
	var warnings []string

	bars := snapshot.Bars
	if len(bars) < minHistoryBars {
		warnings = append(warnings, fmt.Sprintf("insufficient history: %d bars, need %d", len(bars), minHistoryBars))
	}
	// The remaining checks run on 20-bar windows, so they stay meaningful
	// below the history floor; anything shorter has nothing left to measure.
	if len(bars) < eligibilityWindow {
		return models.EligibilityResult{IsEligible: false, Warnings: warnings}
	}

	floor := v.minTurnover
	if f, ok := sectorTurnoverFactor[sector]; ok {
		floor *= f
	}
	if turnover := features.AvgTurnover(bars, eligibilityWindow); turnover < floor {
		warnings = append(warnings, fmt.Sprintf("turnover %.0f below floor %.0f", turnover, floor))
	}

	if last := snapshot.LastClose(); last < minTradablePrice {
		warnings = append(warnings, fmt.Sprintf("price %.2f below tradable floor %.2f", last, minTradablePrice))
	}

	rangePct := features.AvgRangePct(bars, eligibilityWindow)
	if rangePct > maxAvgRangePct {
		warnings = append(warnings, fmt.Sprintf("average daily range %.1f%% too wide", rangePct))
	}
	if rangePct < minAvgRangePct {
		warnings = append(warnings, fmt.Sprintf("average daily range %.2f%% too tight to trade", rangePct))
	}

	stale := 0
	for i := len(bars) - eligibilityWindow; i < len(bars); i++ {
		if bars[i].Volume == 0 {
			stale++
		}
	}
	if stale > maxStaleSessions {
		warnings = append(warnings, fmt.Sprintf("illiquid: %d zero-volume sessions in last %d", stale, eligibilityWindow))
	}

	// Breakout entries need room to run; a dead-flat tape disqualifies them
	// even when general liquidity passes.
	if setupCategory == "breakout" && rangePct < 1.0 && rangePct >= minAvgRangePct {
		warnings = append(warnings, fmt.Sprintf("range %.2f%% too compressed for breakout entries", rangePct))
	}

	return models.EligibilityResult{IsEligible: len(warnings) == 0, Warnings: warnings}
}

var _ domsvc.EligibilityValidator = (*EligibilityValidator)(nil)
