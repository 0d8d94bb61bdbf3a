package api

import (
	"net/http"
	"time"

	models "SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/internal/middleware"
	"SignalDesk/internal/usecase"
	xhttp "SignalDesk/pkg/http"
	xlogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/queue"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type AnalysisEchoHandler struct {
	logger      *xlogger.Logger
	analyzer    *usecase.Analyzer
	batch       *usecase.BatchScanner
	bars        *usecase.BarsUseCase
	diagnostics *usecase.DiagnosticsUseCase
	dispatch    *middleware.SignalDispatch
	store       domrepo.SignalStore
	governor    domsvc.RiskGovernor
	scanQueue   *queue.RedisQueue // nil when redis is disabled
	cached      *CachedSignalsHandler
}

func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	analyzer *usecase.Analyzer,
	batch *usecase.BatchScanner,
	bars *usecase.BarsUseCase,
	diagnostics *usecase.DiagnosticsUseCase,
	dispatch *middleware.SignalDispatch,
	store domrepo.SignalStore,
	governor domsvc.RiskGovernor,
) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{
		logger:      logger,
		analyzer:    analyzer,
		batch:       batch,
		bars:        bars,
		diagnostics: diagnostics,
		dispatch:    dispatch,
		store:       store,
		governor:    governor,
	}
}

// SetScanQueue enables the async scan path.
func (h *AnalysisEchoHandler) SetScanQueue(q *queue.RedisQueue) { h.scanQueue = q }

// SetCachedSignals mounts the rate-limited, cache-backed signal history
// endpoint for polling dashboards.
func (h *AnalysisEchoHandler) SetCachedSignals(c *CachedSignalsHandler) { h.cached = c }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.POST("/scan", h.Scan)
	g.GET("/bars", h.Bars)
	g.GET("/diagnostics", h.Diagnostics)
	g.GET("/signals", h.Signals)
	g.GET("/portfolio", h.Portfolio)
	if h.cached != nil {
		g.GET("/signals/cached", echo.WrapHandler(h.cached.Signals()))
	}
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyzer.Analyze(c.Request().Context(), req.Symbol, req.Index, req.Sector)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	// Approved signals are forwarded to the configured backend; a downstream
	// outage must not fail the analysis response.
	for i := range res.Signals {
		if derr := h.dispatch.Dispatch(c.Request().Context(), &res.Signals[i]); derr != nil {
			h.logger.Warn("signal dispatch failed",
				xlogger.String("symbol", res.Symbol), xlogger.Error(derr))
		}
	}
	if c.QueryParam("format") == "text" {
		return c.String(http.StatusOK, FormatResult(res))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if c.QueryParam("async") == "true" && h.scanQueue != nil {
		payload := usecase.ScanJobPayload{Symbols: req.Symbols, Index: req.Index, Sector: req.Sector}
		if err := h.scanQueue.Enqueue(c.Request().Context(), usecase.ScanJobType, payload); err != nil {
			h.logger.Error("scan enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return c.JSON(http.StatusAccepted, map[string]interface{}{
			"queued":  true,
			"symbols": len(req.Symbols),
		})
	}

	results := h.batch.Scan(c.Request().Context(), req.Symbols, req.Index, req.Sector)
	return xhttp.SuccessResponse(c, results)
}

func (h *AnalysisEchoHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol: req.Symbol,
		Limit:  req.Limit,
	})
	if err != nil {
		h.logger.Error("bars usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Diagnostics(c echo.Context) error {
	req := &models.DiagnosticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.diagnostics.Diagnose(c.Request().Context(), usecase.DiagnosticsParams{
		Symbol: req.Symbol,
		Index:  req.Index,
		Sector: req.Sector,
	})
	if err != nil {
		h.logger.Error("diagnostics usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	to := time.Now().UTC()
	from, to := xhttp.AlignDays(to.AddDate(0, 0, -req.Days), to)
	signals, err := h.store.Query(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		h.logger.Error("signals query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

func (h *AnalysisEchoHandler) Portfolio(c echo.Context) error {
	state := h.governor.State()
	return xhttp.SuccessResponse(c, state)
}
