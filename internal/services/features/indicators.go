package features

import (
	"math"

	"SignalDesk/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(C_t / C_{t-1}).
// It returns a slice of length len(bars)-1, or nil if insufficient data.
func ComputeLogReturns(bars []models.Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		cur := bars[i].Close
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// SMA returns the simple moving average of closes over the trailing window,
// or 0 when the series is shorter than the window.
func SMA(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(window)
}

// ROC returns the percent rate of change of close over the trailing n bars.
func ROC(bars []models.Bar, n int) float64 {
	if n <= 0 || len(bars) <= n {
		return 0
	}
	base := bars[len(bars)-1-n].Close
	if base <= 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - base) / base * 100
}

// ATR returns the average true range over the trailing window.
func ATR(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window+1 {
		return 0
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		tr := trueRange(bars[i], bars[i-1])
		sum += tr
	}
	return sum / float64(window)
}

func trueRange(cur, prev models.Bar) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// AvgTurnover returns the mean close*volume over the trailing window.
func AvgTurnover(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		sum += bars[i].Close * bars[i].Volume
	}
	return sum / float64(window)
}

// AvgVolume returns the mean volume over the trailing window.
func AvgVolume(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	sum := 0.0
	for i := len(bars) - window; i < len(bars); i++ {
		sum += bars[i].Volume
	}
	return sum / float64(window)
}

// AvgRangePct returns the mean daily high-low range as a percent of close
// over the trailing window. A spread/tradability proxy for daily bars.
func AvgRangePct(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	sum := 0.0
	n := 0
	for i := len(bars) - window; i < len(bars); i++ {
		if bars[i].Close <= 0 {
			continue
		}
		sum += (bars[i].High - bars[i].Low) / bars[i].Close * 100
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// HighestHigh returns the max high over the trailing window.
func HighestHigh(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	h := bars[len(bars)-window].High
	for i := len(bars) - window; i < len(bars); i++ {
		if bars[i].High > h {
			h = bars[i].High
		}
	}
	return h
}

// LowestLow returns the min low over the trailing window.
func LowestLow(bars []models.Bar, window int) float64 {
	if window <= 0 || len(bars) < window {
		return 0
	}
	l := bars[len(bars)-window].Low
	for i := len(bars) - window; i < len(bars); i++ {
		if bars[i].Low < l {
			l = bars[i].Low
		}
	}
	return l
}

// RealizedVolatility computes annualized realized volatility over a rolling
// window using the provided number of bars per year. Returns the latest
// window sigma.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * barsPerYear)
}

// TrendSlope fits a least-squares line through the last window closes and
// returns the slope as percent of the mean close per bar.
func TrendSlope(bars []models.Bar, window int) float64 {
	if window <= 1 || len(bars) < window {
		return 0
	}
	var sx, sy, sxx, sxy float64
	start := len(bars) - window
	for i := 0; i < window; i++ {
		x := float64(i)
		y := bars[start+i].Close
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	n := float64(window)
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	slope := (n*sxy - sx*sy) / den
	mean := sy / n
	if mean <= 0 {
		return 0
	}
	return slope / mean * 100
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
