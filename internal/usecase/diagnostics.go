package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/services/features"

	domrepo "SignalDesk/internal/domain/repository"
)

// DiagnosticsUseCase reports what the pipeline sees for a symbol without
// running the signal stages: the fetched series, the regime and eligibility
// verdicts, and the indicator values behind them.
type DiagnosticsUseCase struct {
	source    domrepo.MarketDataSource
	regime    domsvc.RegimeClassifier
	validator domsvc.EligibilityValidator
	sectors   domsvc.SectorLookup
	timeout   time.Duration
}

func NewDiagnosticsUseCase(
	source domrepo.MarketDataSource,
	regime domsvc.RegimeClassifier,
	validator domsvc.EligibilityValidator,
	sectors domsvc.SectorLookup,
) *DiagnosticsUseCase {
	return &DiagnosticsUseCase{
		source:    source,
		regime:    regime,
		validator: validator,
		sectors:   sectors,
		timeout:   10 * time.Second,
	}
}

type DiagnosticsParams struct {
	Symbol string
	Index  string
	Sector string
}

// Diagnose fetches the symbol, index, and VIX concurrently, then computes the
// regime, eligibility, and indicator sections from the assembled snapshot.
// Fetch failures degrade their section instead of failing the call; only a
// missing symbol series aborts.
func (uc *DiagnosticsUseCase) Diagnose(ctx context.Context, p DiagnosticsParams) (*models.SymbolDiagnostics, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Index == "" {
		p.Index = "NIFTY"
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.SymbolDiagnostics{
		Symbol:      p.Symbol,
		GeneratedAt: time.Now().UTC(),
		Errors:      map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.source.FetchStockData(ctx, p.Symbol)
		ch <- item{"bars", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.source.FetchIndexData(ctx, p.Index)
		ch <- item{"index", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.source.CurrentVIX(ctx)
		ch <- item{"vix", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	var snapshot *models.MarketSnapshot
	var index []models.Bar
	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "bars":
			snapshot, _ = it.val.(*models.MarketSnapshot)
		case "index":
			index, _ = it.val.([]models.Bar)
		case "vix":
			res.VIX = it.val.(float64)
		}
	}

	if snapshot == nil || len(snapshot.Bars) == 0 {
		res.Errors["bars"] = "no market data"
		return res, nil
	}
	snapshot.Index = index
	snapshot.VIX = res.VIX

	sector := p.Sector
	if sector == "" {
		sector = uc.sectors.DetectSector(p.Symbol)
	}
	res.Sector = sector
	res.LastClose = snapshot.LastClose()

	regime := uc.regime.Analyze(snapshot)
	res.Regime = &regime
	eligibility := uc.validator.Validate(p.Symbol, snapshot, "", sector)
	res.Eligibility = &eligibility
	res.Indicators = computeIndicators(snapshot.Bars)

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

func computeIndicators(bars []models.Bar) *models.IndicatorSet {
	rets := features.ComputeLogReturns(bars)
	window := 60
	if len(rets) < window {
		window = len(rets)
	}
	return &models.IndicatorSet{
		SMA20:             features.SMA(bars, 20),
		SMA50:             features.SMA(bars, 50),
		ATR14:             features.ATR(bars, 14),
		ROC20:             features.ROC(bars, 20),
		AvgVolume20:       features.AvgVolume(bars, 20),
		AvgTurnover20:     features.AvgTurnover(bars, 20),
		AvgRangePct20:     features.AvgRangePct(bars, 20),
		TrendSlope20:      features.TrendSlope(bars, 20),
		RealizedVolAnnual: features.RealizedVolatility(rets, window, 252),
	}
}
