package models

import "time"

// Bar is a single OHLCV bar of the per-symbol daily series.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// MarketSnapshot is the immutable input of one pipeline run: the symbol's
// bar series, an optional parallel index series, and the volatility-index
// reading at fetch time. Owned by the caller for the duration of one analysis.
type MarketSnapshot struct {
	Symbol string
	Bars   []Bar
	Index  []Bar // nil when index data is unavailable
	VIX    float64
}

// HasIndex reports whether an index series was fetched alongside the symbol.
func (s *MarketSnapshot) HasIndex() bool { return len(s.Index) > 0 }

// LastClose returns the most recent close, or 0 on an empty series.
func (s *MarketSnapshot) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}
