package risk

import (
	"math"
	"sync"

	"SignalDesk/internal/domain/models"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/pkg/logger"
)

// Limits are the portfolio-level admission caps. Zero values are replaced
// with the defaults below so a partially filled config stays safe.
type Limits struct {
	MaxOpenTotal     int
	MaxOpenMicro     int
	MaxOpenBigRunner int
	MaxPerSector     int
	MaxPerDirection  int
	MaxVIX           float64
}

const (
	defaultMaxOpenTotal     = 5
	defaultMaxOpenMicro     = 3
	defaultMaxOpenBigRunner = 2
	defaultMaxPerSector     = 2
	defaultMaxPerDirection  = 4
	defaultMaxVIX           = 28.0
)

// Sizing curve: risk fraction of capital scales linearly with probability.
const (
	sizeMinRiskPct = 0.50
	sizeMaxRiskPct = 2.00
	sizeMinProb    = 65.0
	sizeMaxProb    = 90.0
)

func (l Limits) withDefaults() Limits {
	if l.MaxOpenTotal <= 0 {
		l.MaxOpenTotal = defaultMaxOpenTotal
	}
	if l.MaxOpenMicro <= 0 {
		l.MaxOpenMicro = defaultMaxOpenMicro
	}
	if l.MaxOpenBigRunner <= 0 {
		l.MaxOpenBigRunner = defaultMaxOpenBigRunner
	}
	if l.MaxPerSector <= 0 {
		l.MaxPerSector = defaultMaxPerSector
	}
	if l.MaxPerDirection <= 0 {
		l.MaxPerDirection = defaultMaxPerDirection
	}
	if l.MaxVIX <= 0 {
		l.MaxVIX = defaultMaxVIX
	}
	return l
}

// Governor tracks the open book and decides, under one mutex, whether a new
// candidate may be admitted and at what size. Rejections never mutate state.
type Governor struct {
	mu        sync.Mutex
	limits    Limits
	capital   float64
	vix       float64
	positions []models.OpenPosition

	log *logger.Logger
}

type Option func(*Governor)

func WithLogger(log *logger.Logger) Option {
	return func(g *Governor) { g.log = log }
}

func NewGovernor(capital float64, limits Limits, opts ...Option) *Governor {
	g := &Governor{
		limits:  limits.withDefaults(),
		capital: capital,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanOpenNewTrade runs the admission checks without registering anything.
// Checks run in fixed order and stop at the first violation: total cap,
// engine cap, sector cap, direction cap, volatility gate.
func (g *Governor) CanOpenNewTrade(symbol, sector string, direction models.TradeDirection, engine models.EngineType) models.RiskCheckResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admitLocked(symbol, sector, direction, engine)
}

func (g *Governor) admitLocked(symbol, sector string, direction models.TradeDirection, engine models.EngineType) models.RiskCheckResult {
	if len(g.positions) >= g.limits.MaxOpenTotal {
		return reject("max open positions reached")
	}

	engineCount, sectorCount, directionCount := 0, 0, 0
	for _, p := range g.positions {
		if p.Engine == engine {
			engineCount++
		}
		if p.Sector == sector {
			sectorCount++
		}
		if p.Direction == direction {
			directionCount++
		}
	}

	engineCap := g.limits.MaxOpenMicro
	if engine == models.EngineBigRunner {
		engineCap = g.limits.MaxOpenBigRunner
	}
	if engineCount >= engineCap {
		return reject("max open positions reached for engine " + string(engine))
	}
	if sectorCount >= g.limits.MaxPerSector {
		return reject("sector exposure limit reached for " + sector)
	}
	if directionCount >= g.limits.MaxPerDirection {
		return reject("direction exposure limit reached for " + string(direction))
	}
	if g.vix > g.limits.MaxVIX {
		return reject("volatility gate: VIX above limit")
	}
	return models.RiskCheckResult{Allowed: true}
}

func reject(reason string) models.RiskCheckResult {
	return models.RiskCheckResult{Allowed: false, Reason: reason}
}

// CalculatePositionSize maps probability onto the risk curve and converts
// the risk budget into whole shares. The share count is clamped so notional
// never exceeds capital. Returns zero shares on degenerate geometry.
func (g *Governor) CalculatePositionSize(probability, entry, stop float64) models.PositionSize {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sizeLocked(probability, entry, stop)
}

func (g *Governor) sizeLocked(probability, entry, stop float64) models.PositionSize {
	perShareRisk := math.Abs(entry - stop)
	if entry <= 0 || perShareRisk <= 0 || g.capital <= 0 {
		return models.PositionSize{}
	}

	riskPct := riskCurve(probability)
	budget := g.capital * riskPct / 100
	shares := int(math.Floor(budget / perShareRisk))
	if maxAffordable := int(math.Floor(g.capital / entry)); shares > maxAffordable {
		shares = maxAffordable
	}
	if shares < 0 {
		shares = 0
	}
	return models.PositionSize{Shares: shares, RiskPct: riskPct}
}

// riskCurve interpolates the per-trade risk percentage linearly between
// 0.50% at probability 65 and 2.00% at probability 90, clamped at the ends.
func riskCurve(probability float64) float64 {
	switch {
	case probability <= sizeMinProb:
		return sizeMinRiskPct
	case probability >= sizeMaxProb:
		return sizeMaxRiskPct
	default:
		frac := (probability - sizeMinProb) / (sizeMaxProb - sizeMinProb)
		return sizeMinRiskPct + frac*(sizeMaxRiskPct-sizeMinRiskPct)
	}
}

// AdmitAndSize runs admission, sizing, and registration atomically. Two
// concurrent calls can never both be admitted past a shared limit, because
// the winner's position is already registered when the loser's checks run.
func (g *Governor) AdmitAndSize(symbol, sector string, direction models.TradeDirection, engine models.EngineType, probability, entry, stop float64) (models.PositionSize, models.RiskCheckResult) {
	g.mu.Lock()
	defer g.mu.Unlock()

	check := g.admitLocked(symbol, sector, direction, engine)
	if !check.Allowed {
		g.log.Debug("trade rejected",
			logger.String("symbol", symbol),
			logger.String("reason", check.Reason))
		return models.PositionSize{}, check
	}

	size := g.sizeLocked(probability, entry, stop)
	if size.Shares == 0 {
		return models.PositionSize{}, reject("position size rounds to zero shares")
	}

	g.positions = append(g.positions, models.OpenPosition{
		Symbol:    symbol,
		Sector:    sector,
		Direction: direction,
		Engine:    engine,
		RiskPct:   size.RiskPct,
	})
	return size, models.RiskCheckResult{Allowed: true}
}

// UpdateVIX records the latest volatility-index reading used by the gate.
func (g *Governor) UpdateVIX(v float64) {
	if v <= 0 {
		return
	}
	g.mu.Lock()
	g.vix = v
	g.mu.Unlock()
}

// Release removes the most recently admitted position for symbol, freeing
// its slots. A symbol may hold one position per engine within an analysis,
// so rolling back a failed admission must not clear the earlier ones.
// Unknown symbols are a no-op.
func (g *Governor) Release(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.positions) - 1; i >= 0; i-- {
		if g.positions[i].Symbol == symbol {
			g.positions = append(g.positions[:i], g.positions[i+1:]...)
			return
		}
	}
}

// State returns a copy of the current book.
func (g *Governor) State() models.PortfolioState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.PortfolioState{
		Capital:   g.capital,
		VIX:       g.vix,
		Positions: append([]models.OpenPosition(nil), g.positions...),
	}
}

var _ domsvc.RiskGovernor = (*Governor)(nil)
