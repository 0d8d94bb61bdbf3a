package usecase

import (
	"context"
	"fmt"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

// BarsUseCase exposes the raw daily series the pipeline analyzes, for
// inspection and charting.
type BarsUseCase struct {
	source domrepo.MarketDataSource
}

func NewBarsUseCase(source domrepo.MarketDataSource) *BarsUseCase {
	return &BarsUseCase{source: source}
}

type GetBarsParams struct {
	Symbol string
	Limit  int
}

type GetBarsResult struct {
	Symbol string
	Count  int
	Bars   []models.Bar
}

// GetBars fetches the symbol's daily series and returns the trailing Limit
// bars, newest last.
func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 500 {
		p.Limit = 500
	}

	snapshot, err := uc.source.FetchStockData(ctx, p.Symbol)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}
	if snapshot == nil || len(snapshot.Bars) == 0 {
		return &GetBarsResult{Symbol: p.Symbol}, nil
	}

	bars := snapshot.Bars
	if len(bars) > p.Limit {
		bars = bars[len(bars)-p.Limit:]
	}

	return &GetBarsResult{
		Symbol: p.Symbol,
		Count:  len(bars),
		Bars:   bars,
	}, nil
}
