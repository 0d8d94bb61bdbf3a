package models

// EligibilityResult is the outcome of the per-symbol liquidity/tradability
// gate. Warnings accumulate every failed check so callers can present a
// complete diagnostic, not just the first failure.
type EligibilityResult struct {
	IsEligible bool
	Warnings   []string
}
