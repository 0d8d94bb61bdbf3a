package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mid "SignalDesk/internal/middleware"
	"SignalDesk/internal/usecase"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	vixCollector *usecase.VIXCollector
	consumer     *pkgkafka.Consumer
	kh           pkgkafka.MessageHandler
	chClient     *pkgch.Client
	dispatch     *mid.SignalDispatch
	httpServer   *xhttp.Server
	httpHandler  xhttp.Handler
	Proc         *usecase.SignalProcessor
	ScanQueue    *queue.RedisQueue // nil when redis is disabled
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	vixCollector *usecase.VIXCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	dispatch *mid.SignalDispatch,
) *App {
	return &App{
		cfg:          cfg,
		vixCollector: vixCollector,
		consumer:     consumer,
		kh:           kh,
		chClient:     chClient,
		dispatch:     dispatch,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start the buffered dispatch flusher
	if a.dispatch != nil {
		a.dispatch.Start(ctx)
	}

	// Start the VIX stream; analysis still works on polled readings if the
	// stream is down, so a connect failure is not fatal.
	if a.vixCollector != nil {
		if err := a.vixCollector.Start(ctx); err != nil {
			l.Warn("vix stream unavailable", applogger.Error(err))
		} else {
			l.Info("vix stream started")
		}
	}

	// Start the async scan queue if configured
	if a.ScanQueue != nil {
		if err := a.ScanQueue.Start(); err != nil {
			l.Warn("scan queue unavailable", applogger.Error(err))
		} else {
			l.Info("scan queue started")
		}
	}

	// Start scan-request consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	if a.vixCollector != nil {
		if err := a.vixCollector.Stop(); err != nil {
			l.Warn("vix collector stop error", applogger.Error(err))
		}
	}

	if a.dispatch != nil {
		a.dispatch.Stop()
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Stop scan queue workers
	if a.ScanQueue != nil {
		if err := a.ScanQueue.Stop(ctx); err != nil {
			l.Warn("scan queue stop error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/storage), then the pool behind them
	if a.Proc != nil {
		a.Proc.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
