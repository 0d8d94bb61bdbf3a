package api

import (
	"fmt"
	"sort"
	"strings"

	"SignalDesk/internal/domain/models"
)

// FormatResult renders an analysis result as the plain-text report used by
// chat and terminal consumers.
func FormatResult(res *models.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s\n", res.Symbol, res.GeneratedAt.Format("2006-01-02 15:04 MST"))

	switch res.Status {
	case models.StatusNoData:
		b.WriteString("No market data available.\n")
		return b.String()
	case models.StatusNoTrade:
		fmt.Fprintf(&b, "No trade: market regime is %s.\n", regimeLabel(res.Regime))
		return b.String()
	case models.StatusNotEligible:
		b.WriteString("Not eligible:\n")
		for _, r := range res.Reasons {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
		return b.String()
	}

	if len(res.Signals) == 0 {
		b.WriteString("Analysis complete: no setup cleared the probability and risk gates.\n")
		return b.String()
	}
	for i := range res.Signals {
		b.WriteString(FormatSignal(&res.Signals[i]))
	}
	return b.String()
}

// FormatSignal renders one approved signal.
func FormatSignal(s *models.TradeSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s (%s)\n", s.EngineLabel, s.Direction, s.Symbol, s.SetupKind)
	fmt.Fprintf(&b, "  Probability: %.1f%% | Trend: %s | Sector: %s\n", s.Probability, s.Trend, s.Sector)
	fmt.Fprintf(&b, "  Entry: %.2f | Stop: %.2f | Target: %.2f\n", s.Entry, s.StopLoss, s.Target)

	if len(s.Targets) > 0 {
		labels := make([]string, 0, len(s.Targets))
		for label := range s.Targets {
			labels = append(labels, label)
		}
		sort.Slice(labels, func(i, j int) bool { return s.Targets[labels[i]] < s.Targets[labels[j]] })
		if s.Direction == models.Short {
			sort.Slice(labels, func(i, j int) bool { return s.Targets[labels[i]] > s.Targets[labels[j]] })
		}
		parts := make([]string, 0, len(labels))
		for _, label := range labels {
			parts = append(parts, fmt.Sprintf("%s=%.2f", label, s.Targets[label]))
		}
		fmt.Fprintf(&b, "  Ladder: %s\n", strings.Join(parts, " "))
	}
	if s.RunnerMode {
		fmt.Fprintf(&b, "  Runner mode: partial exit %.2f, then %s\n", s.Target, trailLabel(s.TrailMethod))
	}
	fmt.Fprintf(&b, "  Size: %d shares at %.2f%% risk | Hold: %s\n", s.Shares, s.RiskPct, s.ExpectedHold)
	if s.IndexAligned {
		b.WriteString("  Index aligned\n")
	}
	return b.String()
}

func regimeLabel(r *models.RegimeResult) string {
	if r == nil {
		return "unknown"
	}
	return fmt.Sprintf("%s (score %.0f)", r.Direction, r.Score)
}

func trailLabel(m models.TrailingMethod) string {
	if m == models.TrailATR {
		return "ATR trailing stop"
	}
	return "structure trailing stop"
}
