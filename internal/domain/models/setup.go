package models

import "fmt"

// EngineType identifies which scanning engine produced a candidate.
type EngineType string

const (
	EngineMicro     EngineType = "MICRO"
	EngineBigRunner EngineType = "BIG_RUNNER"
)

// Label returns the human-facing engine name used on emitted signals.
func (e EngineType) Label() string {
	if e == EngineMicro {
		return "MICRO-PROFIT"
	}
	return "BIG-RUNNER"
}

// TrailingMethod names the stop-trailing policy chosen for a big-runner
// setup. The choice is returned, not executed; trailing management is
// outside this pipeline.
type TrailingMethod string

const (
	TrailATR       TrailingMethod = "ATR_TRAIL"
	TrailStructure TrailingMethod = "STRUCTURE_TRAIL"
)

// CandidateSetup is a candidate trade geometry emitted by a scanner. It is
// a tagged variant: Engine selects which variant fields are meaningful.
// Micro setups carry a reward-multiple target ladder; big-runner setups
// carry a single partial-exit target plus a trailing-stop method.
type CandidateSetup struct {
	Engine     EngineType
	Kind       string // detector name, e.g. "PULLBACK_SUPPORT"
	Direction  TradeDirection
	EntryPrice float64
	StopLoss   float64

	// Micro only: reward-multiple label ("1.0R") -> target price.
	Targets map[string]float64

	// BigRunner only.
	PartialExitTarget float64
	TrailingMethod    TrailingMethod
}

// PrimaryTarget returns the target used for scoring and signal assembly:
// the 1.0R rung for micro setups, the partial-exit target for big runners.
func (s CandidateSetup) PrimaryTarget() float64 {
	if s.Engine == EngineMicro {
		return s.Targets["1.0R"]
	}
	return s.PartialExitTarget
}

// Validate enforces the setup invariants: positive prices and
// direction-consistent ordering (long: stop < entry < every target, short
// inverted). A violation is a programming error in the emitting scanner,
// not a recoverable market condition.
func (s CandidateSetup) Validate() error {
	if s.EntryPrice <= 0 || s.StopLoss <= 0 {
		return fmt.Errorf("setup %s/%s: non-positive entry %.4f or stop %.4f", s.Engine, s.Kind, s.EntryPrice, s.StopLoss)
	}
	targets := make([]float64, 0, len(s.Targets)+1)
	switch s.Engine {
	case EngineMicro:
		if len(s.Targets) == 0 {
			return fmt.Errorf("setup %s/%s: micro setup without target ladder", s.Engine, s.Kind)
		}
		for label, t := range s.Targets {
			if t <= 0 {
				return fmt.Errorf("setup %s/%s: non-positive target %s=%.4f", s.Engine, s.Kind, label, t)
			}
			targets = append(targets, t)
		}
	case EngineBigRunner:
		if s.PartialExitTarget <= 0 {
			return fmt.Errorf("setup %s/%s: non-positive partial exit target", s.Engine, s.Kind)
		}
		if s.TrailingMethod != TrailATR && s.TrailingMethod != TrailStructure {
			return fmt.Errorf("setup %s/%s: unknown trailing method %q", s.Engine, s.Kind, s.TrailingMethod)
		}
		targets = append(targets, s.PartialExitTarget)
	default:
		return fmt.Errorf("setup %s/%s: unknown engine", s.Engine, s.Kind)
	}

	switch s.Direction {
	case Long:
		if s.StopLoss >= s.EntryPrice {
			return fmt.Errorf("setup %s/%s: long stop %.4f >= entry %.4f", s.Engine, s.Kind, s.StopLoss, s.EntryPrice)
		}
		for _, t := range targets {
			if t <= s.EntryPrice {
				return fmt.Errorf("setup %s/%s: long target %.4f <= entry %.4f", s.Engine, s.Kind, t, s.EntryPrice)
			}
		}
	case Short:
		if s.StopLoss <= s.EntryPrice {
			return fmt.Errorf("setup %s/%s: short stop %.4f <= entry %.4f", s.Engine, s.Kind, s.StopLoss, s.EntryPrice)
		}
		for _, t := range targets {
			if t >= s.EntryPrice {
				return fmt.Errorf("setup %s/%s: short target %.4f >= entry %.4f", s.Engine, s.Kind, t, s.EntryPrice)
			}
		}
	default:
		return fmt.Errorf("setup %s/%s: unknown direction %q", s.Engine, s.Kind, s.Direction)
	}
	return nil
}
