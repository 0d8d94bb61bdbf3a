package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	csvc "SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/ratelimit"
	pkghttp "SignalDesk/pkg/http"
	"SignalDesk/pkg/logger"
)

// Index symbols of the provider's universe.
var indexSymbols = map[string]string{
	"NIFTY":     "^NSEI",
	"BANKNIFTY": "^NSEBANK",
}

const vixSymbol = "^INDIAVIX"

// Config holds provider access settings.
type Config struct {
	BaseURL     string
	APIKey      string
	HistoryDays int
	Timeout     time.Duration
	CacheTTL    time.Duration
	// Token bucket for provider calls.
	RateCapacity  float64
	RateRefillSec float64
}

// Client fetches daily candles and the volatility index over the provider's
// REST API. Fetched series are cached for CacheTTL so a batch scan does not
// refetch the index per symbol, and provider calls go through a token
// bucket shared by all fetch kinds.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	cache   csvc.BytesCache
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func NewClient(cfg Config, cache csvc.BytesCache, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 250
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 10
	}
	if cfg.RateRefillSec <= 0 {
		cfg.RateRefillSec = 2
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		cache:   cache,
		limiter: limiter,
		log:     log,
	}
}

// candleResponse is the provider's daily-candle payload: parallel arrays
// plus a status flag.
type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

type quoteResponse struct {
	Current float64 `json:"c"`
}

// FetchStockData returns the symbol's daily series, or (nil, nil) when the
// provider has nothing for it.
func (c *Client) FetchStockData(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	bars, err := c.fetchCandles(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if bars == nil {
		return nil, nil
	}
	return &models.MarketSnapshot{Symbol: symbol, Bars: bars}, nil
}

// FetchIndexData resolves the index name to the provider's symbol and
// returns its series.
func (c *Client) FetchIndexData(ctx context.Context, index string) ([]models.Bar, error) {
	sym, ok := indexSymbols[index]
	if !ok {
		return nil, fmt.Errorf("unknown index %q", index)
	}
	bars, err := c.fetchCandles(ctx, sym)
	if err != nil {
		return nil, err
	}
	if bars == nil {
		return nil, fmt.Errorf("no data for index %s", index)
	}
	return bars, nil
}

// CurrentVIX returns the latest volatility-index quote.
func (c *Client) CurrentVIX(ctx context.Context) (float64, error) {
	if !c.allow() {
		return 0, fmt.Errorf("provider rate limit exceeded")
	}
	var q quoteResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.cfg.BaseURL + "/quote",
		QueryParams: map[string][]string{
			"symbol": {vixSymbol},
			"token":  {c.cfg.APIKey},
		},
	}, &q)
	if err != nil {
		return 0, fmt.Errorf("fetch vix: %w", err)
	}
	if q.Current <= 0 {
		return 0, fmt.Errorf("vix quote empty")
	}
	return q.Current, nil
}

func (c *Client) fetchCandles(ctx context.Context, symbol string) ([]models.Bar, error) {
	key := "bars:" + symbol
	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(key); err == nil && ok {
			var bars []models.Bar
			if err := json.Unmarshal(b, &bars); err == nil {
				return bars, nil
			}
			// corrupt entry falls through to a refetch
		}
	}

	if !c.allow() {
		return nil, fmt.Errorf("provider rate limit exceeded")
	}

	now := time.Now()
	from := now.AddDate(0, 0, -c.cfg.HistoryDays)
	var resp candleResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    c.cfg.BaseURL + "/stock/candle",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {"D"},
			"from":       {strconv.FormatInt(from.Unix(), 10)},
			"to":         {strconv.FormatInt(now.Unix(), 10)},
			"token":      {c.cfg.APIKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if resp.Status == "no_data" || len(resp.Closes) == 0 {
		return nil, nil
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("fetch candles %s: provider status %q", symbol, resp.Status)
	}

	bars, err := resp.toBars()
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}

	if c.cache != nil {
		if b, err := json.Marshal(bars); err == nil {
			if err := c.cache.SetBytes(key, b, c.cfg.CacheTTL); err != nil {
				c.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
			}
		}
	}
	return bars, nil
}

func (r *candleResponse) toBars() ([]models.Bar, error) {
	n := len(r.Closes)
	if len(r.Times) != n || len(r.Opens) != n || len(r.Highs) != n || len(r.Lows) != n || len(r.Volumes) != n {
		return nil, fmt.Errorf("ragged candle arrays: t=%d o=%d h=%d l=%d c=%d v=%d",
			len(r.Times), len(r.Opens), len(r.Highs), len(r.Lows), n, len(r.Volumes))
	}
	bars := make([]models.Bar, n)
	for i := 0; i < n; i++ {
		bars[i] = models.Bar{
			Date:   time.Unix(r.Times[i], 0).UTC(),
			Open:   r.Opens[i],
			High:   r.Highs[i],
			Low:    r.Lows[i],
			Close:  r.Closes[i],
			Volume: r.Volumes[i],
		}
	}
	return bars, nil
}

func (c *Client) allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow("provider", c.cfg.RateCapacity, c.cfg.RateRefillSec)
}

var _ drepo.MarketDataSource = (*Client)(nil)
