package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/pkg/logger"
)

// AnalyzerConfig toggles engines and sets scoring inputs that are not
// derivable from market data.
type AnalyzerConfig struct {
	EnableMicro     bool
	EnableBigRunner bool
	// NominalRiskPct is the assumed per-trade risk used by the scorer's
	// geometry quality check, before the governor sizes the real position.
	NominalRiskPct float64
}

// Analyzer runs the full decision pipeline for one symbol: fetch, regime
// gate, eligibility gate, scan, score, risk admission, assembly. Stages
// short-circuit; a symbol stopped at a gate never reaches the stages
// behind it.
type Analyzer struct {
	source    domrepo.MarketDataSource
	regime    domsvc.RegimeClassifier
	validator domsvc.EligibilityValidator
	scanners  []domsvc.SetupScanner
	scorer    domsvc.ProbabilityScorer
	governor  domsvc.RiskGovernor
	sectors   domsvc.SectorLookup
	assembler *SignalAssembler
	metrics   domrepo.Metrics
	cfg       AnalyzerConfig
	log       *logger.Logger
}

func NewAnalyzer(
	source domrepo.MarketDataSource,
	regime domsvc.RegimeClassifier,
	validator domsvc.EligibilityValidator,
	scanners []domsvc.SetupScanner,
	scorer domsvc.ProbabilityScorer,
	governor domsvc.RiskGovernor,
	sectors domsvc.SectorLookup,
	metrics domrepo.Metrics,
	cfg AnalyzerConfig,
	log *logger.Logger,
) *Analyzer {
	if cfg.NominalRiskPct <= 0 {
		cfg.NominalRiskPct = 1.0
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Analyzer{
		source:    source,
		regime:    regime,
		validator: validator,
		scanners:  scanners,
		scorer:    scorer,
		governor:  governor,
		sectors:   sectors,
		assembler: NewSignalAssembler(),
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
	}
}

// scoredCandidate pairs a validated setup with its score for admission
// ordering.
type scoredCandidate struct {
	setup      models.CandidateSetup
	components models.ProbabilityComponents
}

// Analyze runs the pipeline for one symbol against the named index. An
// empty sector falls back to the lookup table.
func (a *Analyzer) Analyze(ctx context.Context, symbol, index, sector string) (*models.AnalysisResult, error) {
	start := time.Now()
	result, err := a.analyze(ctx, symbol, index, sector)
	if err != nil {
		a.metrics.RecordError("analyze")
		return nil, err
	}
	a.metrics.RecordAnalysis(symbol, string(result.Status))
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, symbol, index, sector string) (*models.AnalysisResult, error) {
	snapshot, err := a.source.FetchStockData(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if snapshot == nil || len(snapshot.Bars) == 0 {
		return &models.AnalysisResult{
			Symbol:      symbol,
			Status:      models.StatusNoData,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	// Index and VIX are best-effort: regime analysis degrades without the
	// index, and the governor keeps its last VIX reading.
	if bars, err := a.source.FetchIndexData(ctx, index); err != nil {
		a.log.Warn("index fetch failed", logger.String("index", index), logger.Error(err))
	} else {
		snapshot.Index = bars
	}
	if vix, err := a.source.CurrentVIX(ctx); err != nil {
		a.log.Warn("vix fetch failed", logger.Error(err))
	} else {
		snapshot.VIX = vix
		a.governor.UpdateVIX(vix)
	}

	if sector == "" {
		sector = a.sectors.DetectSector(symbol)
	}

	result := &models.AnalysisResult{
		Symbol:      symbol,
		VIX:         snapshot.VIX,
		LastClose:   snapshot.LastClose(),
		GeneratedAt: time.Now().UTC(),
	}

	regime := a.regime.Analyze(snapshot)
	result.Regime = &regime
	if !regime.Tradeable() {
		result.Status = models.StatusNoTrade
		a.metrics.RecordRejection("regime")
		return result, nil
	}

	eligibility := a.validator.Validate(symbol, snapshot, "", sector)
	if !eligibility.IsEligible {
		result.Status = models.StatusNotEligible
		result.Reasons = eligibility.Warnings
		a.metrics.RecordRejection("eligibility")
		return result, nil
	}

	candidates, err := a.scoreCandidates(snapshot, regime, symbol)
	if err != nil {
		return nil, err
	}

	// Admission attempts run best-first; every admitted candidate becomes
	// one of the symbol's signals, so both engines can report in the same
	// analysis. The governor's caps bound how many get through.
	for _, c := range candidates {
		size, check := a.governor.AdmitAndSize(
			symbol, sector, c.setup.Direction, c.setup.Engine,
			c.components.FinalProbability, c.setup.EntryPrice, c.setup.StopLoss,
		)
		if !check.Allowed {
			a.metrics.RecordRejection("risk")
			a.log.Debug("candidate rejected by governor",
				logger.String("symbol", symbol),
				logger.String("reason", check.Reason))
			continue
		}
		signal, err := a.assembler.Assemble(snapshot, regime, c.setup, c.components, size, sector)
		if err != nil {
			// A sized, admitted candidate that fails assembly is a
			// contract violation; free the slot and surface it.
			a.governor.Release(symbol)
			a.metrics.RecordError("assemble")
			return nil, err
		}
		result.Signals = append(result.Signals, *signal)
		a.metrics.RecordSignal(string(signal.Engine))
		a.metrics.RecordProbability(symbol, signal.Probability)
	}

	result.Status = models.StatusSuccess
	return result, nil
}

// scoreCandidates scans the enabled engines, drops directions the regime
// vetoes, scores the rest, and returns threshold survivors in descending
// probability order.
func (a *Analyzer) scoreCandidates(snapshot *models.MarketSnapshot, regime models.RegimeResult, symbol string) ([]scoredCandidate, error) {
	var out []scoredCandidate
	for _, scanner := range a.scanners {
		if !a.engineEnabled(scanner.Engine()) {
			continue
		}
		for _, setup := range scanner.Scan(snapshot) {
			if !regime.AllowsDirection(setup.Direction) {
				a.metrics.RecordRejection("direction")
				continue
			}
			if err := setup.Validate(); err != nil {
				a.metrics.RecordError("setup_contract")
				return nil, fmt.Errorf("scanner %s emitted invalid setup: %w", scanner.Engine(), err)
			}
			components := a.scorer.Score(snapshot, setup, a.cfg.NominalRiskPct)
			if !a.scorer.MeetsThreshold(components.FinalProbability, setup.Engine) {
				a.metrics.RecordRejection("probability")
				a.log.Debug("candidate below threshold",
					logger.String("symbol", symbol),
					logger.String("engine", string(setup.Engine)),
					logger.Float64("probability", components.FinalProbability))
				continue
			}
			out = append(out, scoredCandidate{setup: setup, components: components})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].components.FinalProbability > out[j].components.FinalProbability
	})
	return out, nil
}

func (a *Analyzer) engineEnabled(engine models.EngineType) bool {
	if engine == models.EngineMicro {
		return a.cfg.EnableMicro
	}
	return a.cfg.EnableBigRunner
}
