package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/domain/models"
)

type stubProc struct {
	mu    sync.Mutex
	got   []string
	fail  bool
	calls int
}

func (p *stubProc) Process(_ context.Context, s *models.TradeSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return fmt.Errorf("backend down")
	}
	p.got = append(p.got, s.Symbol)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordAnalysis(string, string)     {}
func (nopMetrics) RecordRejection(string)            {}
func (nopMetrics) RecordSignal(string)               {}
func (nopMetrics) RecordProbability(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)     {}
func (nopMetrics) RecordError(string)                {}

func signal(symbol string) *models.TradeSignal {
	return &models.TradeSignal{
		Symbol:   symbol,
		Entry:    100,
		StopLoss: 95,
		Shares:   10,
	}
}

func TestDispatchForwardsValidSignal(t *testing.T) {
	proc := &stubProc{}
	d := NewSignalDispatch(proc, nopMetrics{})

	if err := d.Dispatch(context.Background(), signal("RELIANCE")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(proc.got) != 1 || proc.got[0] != "RELIANCE" {
		t.Fatalf("downstream got %v", proc.got)
	}
}

func TestDispatchRejectsInvalidSignals(t *testing.T) {
	proc := &stubProc{}
	d := NewSignalDispatch(proc, nopMetrics{})

	cases := []*models.TradeSignal{
		nil,
		{Entry: 100, StopLoss: 95, Shares: 10},                // no symbol
		{Symbol: "X1", Entry: 0, StopLoss: 95, Shares: 10},    // bad entry
		{Symbol: "X2", Entry: 100, StopLoss: 100, Shares: 10}, // stop == entry
		{Symbol: "X3", Entry: 100, StopLoss: 95, Shares: 0},   // no shares
	}
	for i, s := range cases {
		if err := d.Dispatch(context.Background(), s); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if proc.calls != 0 {
		t.Fatalf("invalid signals must not reach downstream, got %d calls", proc.calls)
	}
}

func TestDispatchThrottlesRepeatedSymbol(t *testing.T) {
	proc := &stubProc{}
	d := NewSignalDispatch(proc, nopMetrics{}, WithMinGap(time.Minute))

	if err := d.Dispatch(context.Background(), signal("TCS")); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	// second emission inside the gap is dropped without error
	if err := d.Dispatch(context.Background(), signal("TCS")); err != nil {
		t.Fatalf("throttled dispatch must not error: %v", err)
	}
	if err := d.Dispatch(context.Background(), signal("INFY")); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	// Same symbol through the other engine is a distinct emission.
	runner := signal("TCS")
	runner.Engine = models.EngineBigRunner
	if err := d.Dispatch(context.Background(), runner); err != nil {
		t.Fatalf("other engine on same symbol: %v", err)
	}
	if len(proc.got) != 3 {
		t.Fatalf("downstream got %v, want TCS, INFY and the runner TCS", proc.got)
	}
}

func TestDispatchBuffersOnDownstreamFailure(t *testing.T) {
	proc := &stubProc{fail: true}
	d := NewSignalDispatch(proc, nopMetrics{}, WithBufferSize(4))

	if err := d.Dispatch(context.Background(), signal("HDFCBANK")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if len(d.bufCh) != 1 {
		t.Fatalf("buffer depth = %d, want 1", len(d.bufCh))
	}

	// once the backend recovers, the flusher drains the buffer
	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		proc.mu.Lock()
		n := len(proc.got)
		proc.mu.Unlock()
		if n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("buffered signal was not flushed")
}
