package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	icache "SignalDesk/internal/service/cache"
	"SignalDesk/internal/service/metrics"
	"SignalDesk/internal/service/ratelimit"
	xhttp "SignalDesk/pkg/http"
	applogger "SignalDesk/pkg/logger"
)

// CachedSignalsHandler is the plain net/http surface for signal history
// reads: rate limited per caller and cached, so dashboards polling it do
// not hammer ClickHouse.
type CachedSignalsHandler struct {
	store domrepo.SignalStore
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewCachedSignalsHandler(store domrepo.SignalStore) *CachedSignalsHandler {
	metrics.Register()
	return &CachedSignalsHandler{store: store, rl: ratelimit.New()}
}

func (h *CachedSignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *CachedSignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *CachedSignalsHandler) Signals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "signals"
		defer func() { metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		days := xhttp.ParseIntDefault(r.URL.Query().Get("days"), 7)
		limit := xhttp.ParseIntDefault(r.URL.Query().Get("limit"), 50)

		if !h.rl.Allow(r.RemoteAddr+":signals", 5, 2) {
			if h.l != nil {
				h.l.Warn("signals rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		cacheKey := "signals:" + symbol + ":" + strconv.Itoa(days) + ":" + strconv.Itoa(limit)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("signals cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("signals cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("signals write_error", applogger.Error(err))
				}
				return
			}
			if h.l != nil {
				h.l.Debug("signals cache_miss", applogger.String("key", cacheKey))
			}
		}

		to := time.Now().UTC()
		from, to := xhttp.AlignDays(to.AddDate(0, 0, -days), to)
		res, err := h.store.Query(r.Context(), symbol, from, to, limit)
		if err != nil {
			metrics.AnalyticsErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("signals query error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(res)
		if err != nil {
			if h.l != nil {
				h.l.Error("signals marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("signals cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("signals write_error", applogger.Error(err))
		}
	}
}
