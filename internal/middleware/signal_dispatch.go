package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

// Proc is the minimal downstream interface the dispatcher needs.
type Proc interface {
	Process(ctx context.Context, s *models.TradeSignal) error
}

// SignalDispatch sits between signal producers and the persistence/fan-out
// processor. It validates, throttles repeated emissions per symbol, and
// buffers when the downstream backend is unavailable.
type SignalDispatch struct {
	proc     Proc
	metrics  domrepo.Metrics
	minGap   time.Duration
	bufSize  int
	bufCh    chan *models.TradeSignal
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per symbol+engine last accepted time
}

type DispatchOption func(*SignalDispatch)

// WithMinGap sets the minimum interval between dispatches of the same
// symbol and engine.
func WithMinGap(d time.Duration) DispatchOption {
	return func(p *SignalDispatch) {
		if d > 0 {
			p.minGap = d
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) DispatchOption {
	return func(p *SignalDispatch) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewSignalDispatch creates a new dispatcher.
func NewSignalDispatch(proc Proc, metrics domrepo.Metrics, opts ...DispatchOption) *SignalDispatch {
	p := &SignalDispatch{
		proc:     proc,
		metrics:  metrics,
		minGap:   time.Second, // one emission per symbol per second
		bufSize:  256,
		bufCh:    make(chan *models.TradeSignal, 256),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.TradeSignal, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered signals.
func (p *SignalDispatch) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.proc.Process(ctx, s); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("dispatch_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- s:
					default:
						p.metrics.RecordError("dispatch_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *SignalDispatch) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Dispatch validates and forwards a signal downstream, buffering on errors.
// Throttled duplicates are dropped silently: the governor has already
// registered the position, so a repeated emission carries no new state.
func (p *SignalDispatch) Dispatch(ctx context.Context, s *models.TradeSignal) error {
	start := time.Now()
	if err := validateSignal(s); err != nil {
		p.metrics.RecordError("dispatch_validate")
		return err
	}
	// One analysis can emit a micro and a big-runner signal for the same
	// symbol, so the throttle keys on both.
	if !p.allow(s.Symbol+":"+string(s.Engine), start) {
		p.metrics.RecordError("dispatch_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("dispatch_process")
		// buffer non-blocking
		select {
		case p.bufCh <- s:
			p.metrics.RecordLatency("dispatch_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("dispatch_buffer_full")
		}
		return fmt.Errorf("dispatch downstream: %w", err)
	}
	p.metrics.RecordLatency("dispatch", time.Since(start).Seconds())
	return nil
}

func validateSignal(s *models.TradeSignal) error {
	if s == nil {
		return fmt.Errorf("signal nil")
	}
	if s.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if s.Entry <= 0 || s.StopLoss <= 0 {
		return fmt.Errorf("invalid price levels")
	}
	if s.Entry == s.StopLoss {
		return fmt.Errorf("entry equals stop")
	}
	if s.Shares <= 0 {
		return fmt.Errorf("non-positive share count")
	}
	return nil
}

func (p *SignalDispatch) allow(key string, now time.Time) bool {
	if p.minGap <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[key]
	if !last.IsZero() && now.Sub(last) < p.minGap {
		return false
	}
	p.lastSeen[key] = now
	return true
}
