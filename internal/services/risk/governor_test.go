package risk

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"SignalDesk/internal/domain/models"
)

func admit(t *testing.T, g *Governor, symbol, sector string, dir models.TradeDirection, engine models.EngineType) {
	t.Helper()
	_, check := g.AdmitAndSize(symbol, sector, dir, engine, 75, 100, 95)
	if !check.Allowed {
		t.Fatalf("setup admission of %s failed: %s", symbol, check.Reason)
	}
}

func TestGovernorAdmissionOrder(t *testing.T) {
	g := NewGovernor(1_000_000, Limits{})

	admit(t, g, "AAA", "IT", models.Long, models.EngineMicro)
	admit(t, g, "BBB", "IT", models.Long, models.EngineMicro)

	// Sector cap (2) hits before the direction cap would.
	check := g.CanOpenNewTrade("CCC", "IT", models.Long, models.EngineMicro)
	if check.Allowed || check.Reason != "sector exposure limit reached for IT" {
		t.Fatalf("expected sector rejection, got %+v", check)
	}

	// Same candidate in another sector passes.
	if check := g.CanOpenNewTrade("CCC", "PHARMA", models.Long, models.EngineMicro); !check.Allowed {
		t.Fatalf("unexpected rejection: %s", check.Reason)
	}
}

func TestGovernorEngineCaps(t *testing.T) {
	g := NewGovernor(1_000_000, Limits{})

	admit(t, g, "M1", "S1", models.Long, models.EngineMicro)
	admit(t, g, "M2", "S2", models.Long, models.EngineMicro)
	admit(t, g, "M3", "S3", models.Long, models.EngineMicro)

	// Engine cap is checked before the direction cap.
	check := g.CanOpenNewTrade("M4", "S4", models.Long, models.EngineMicro)
	if check.Allowed || check.Reason != "max open positions reached for engine MICRO" {
		t.Fatalf("expected micro engine-cap rejection, got %+v", check)
	}

	// Big-runner slots are independent of the micro cap.
	admit(t, g, "R1", "S4", models.Short, models.EngineBigRunner)
	admit(t, g, "R2", "S5", models.Short, models.EngineBigRunner)

	check = g.CanOpenNewTrade("R3", "S6", models.Short, models.EngineBigRunner)
	if check.Allowed || check.Reason != "max open positions reached" {
		t.Fatalf("expected total-cap rejection at 5 open, got %+v", check)
	}
}

func TestGovernorVIXGate(t *testing.T) {
	g := NewGovernor(1_000_000, Limits{})

	g.UpdateVIX(28.5)
	check := g.CanOpenNewTrade("AAA", "IT", models.Long, models.EngineMicro)
	if check.Allowed || check.Reason != "volatility gate: VIX above limit" {
		t.Fatalf("expected VIX rejection, got %+v", check)
	}

	g.UpdateVIX(28.0) // at the limit, not above it
	if check := g.CanOpenNewTrade("AAA", "IT", models.Long, models.EngineMicro); !check.Allowed {
		t.Fatalf("VIX at the limit must pass, got %s", check.Reason)
	}

	g.UpdateVIX(-1) // bogus readings are ignored
	if got := g.State().VIX; got != 28.0 {
		t.Fatalf("negative VIX update must be dropped, state has %.2f", got)
	}
}

func TestGovernorRejectionMutatesNothing(t *testing.T) {
	g := NewGovernor(1_000_000, Limits{MaxOpenTotal: 1})
	admit(t, g, "AAA", "IT", models.Long, models.EngineMicro)

	before := g.State()
	if _, check := g.AdmitAndSize("BBB", "AUTO", models.Short, models.EngineBigRunner, 80, 50, 48); check.Allowed {
		t.Fatal("expected rejection at total cap 1")
	}
	after := g.State()
	if len(after.Positions) != len(before.Positions) {
		t.Fatalf("rejection changed the book: %d -> %d positions", len(before.Positions), len(after.Positions))
	}
}

func TestRiskCurve(t *testing.T) {
	cases := []struct {
		prob float64
		want float64
	}{
		{50, 0.50},
		{65, 0.50},
		{77.5, 1.25},
		{90, 2.00},
		{99, 2.00},
	}
	for _, tc := range cases {
		if got := riskCurve(tc.prob); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("riskCurve(%.1f) = %.4f, want %.4f", tc.prob, got, tc.want)
		}
	}
}

func TestCalculatePositionSize(t *testing.T) {
	g := NewGovernor(1_000_000, Limits{})

	// prob 77.5 -> 1.25% risk -> 12500 budget / 5 per-share risk = 2500 shares.
	size := g.CalculatePositionSize(77.5, 100, 95)
	if size.Shares != 2500 || math.Abs(size.RiskPct-1.25) > 1e-9 {
		t.Fatalf("got %+v, want 2500 shares at 1.25%%", size)
	}

	// Tight stop would imply more notional than capital: clamp to affordable.
	size = g.CalculatePositionSize(90, 100, 99.9)
	if size.Shares != 10_000 {
		t.Fatalf("notional clamp failed: %d shares at entry 100 on 1M capital", size.Shares)
	}

	// Degenerate geometry sizes to zero.
	if size := g.CalculatePositionSize(80, 100, 100); size.Shares != 0 {
		t.Fatalf("zero-distance stop must size to zero, got %+v", size)
	}
}

func TestAdmitAndSizeRegistersAndReleases(t *testing.T) {
	g := NewGovernor(1_000_000, Limits{})

	size, check := g.AdmitAndSize("AAA", "IT", models.Long, models.EngineMicro, 77.5, 100, 95)
	if !check.Allowed || size.Shares != 2500 {
		t.Fatalf("admission failed: %+v %+v", size, check)
	}

	// One analysis may admit the same symbol through both engines.
	if _, check := g.AdmitAndSize("AAA", "IT", models.Long, models.EngineBigRunner, 80, 100, 95); !check.Allowed {
		t.Fatalf("second engine on the same symbol rejected: %s", check.Reason)
	}
	if got := len(g.State().Positions); got != 2 {
		t.Fatalf("book holds %d positions, want 2", got)
	}

	// Release rolls back only the most recent admission for the symbol.
	g.Release("AAA")
	state := g.State()
	if len(state.Positions) != 1 || state.Positions[0].Engine != models.EngineMicro {
		t.Fatalf("release removed the wrong position: %+v", state.Positions)
	}
	g.Release("AAA")
	if got := len(g.State().Positions); got != 0 {
		t.Fatalf("book not empty after releasing both: %d positions left", got)
	}
}

// Many goroutines race for the same sector; the cap must hold exactly.
func TestGovernorConcurrentSectorCap(t *testing.T) {
	g := NewGovernor(10_000_000, Limits{MaxOpenTotal: 50, MaxOpenMicro: 50, MaxPerDirection: 50})

	const attempts = 32
	var wg sync.WaitGroup
	admitted := make(chan string, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			symbol := fmt.Sprintf("SYM%02d", i)
			if _, check := g.AdmitAndSize(symbol, "BANKS", models.Long, models.EngineMicro, 80, 100, 95); check.Allowed {
				admitted <- symbol
			}
		}(i)
	}
	wg.Wait()
	close(admitted)

	var winners []string
	for s := range admitted {
		winners = append(winners, s)
	}
	if len(winners) != 2 {
		t.Fatalf("sector cap 2 violated under concurrency: %d admitted (%v)", len(winners), winners)
	}
	if got := len(g.State().Positions); got != 2 {
		t.Fatalf("book holds %d positions, want 2", got)
	}
}
