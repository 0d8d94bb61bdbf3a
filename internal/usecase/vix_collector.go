package usecase

import (
	"context"

	domrepo "SignalDesk/internal/domain/repository"
	domsvc "SignalDesk/internal/domain/service"
	"SignalDesk/pkg/logger"
)

// VIXCollector pumps streamed volatility-index readings into the risk
// governor so its gate reflects the market between analyses.
type VIXCollector struct {
	stream   domrepo.VIXStream
	governor domsvc.RiskGovernor
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewVIXCollector(stream domrepo.VIXStream, governor domsvc.RiskGovernor, metrics domrepo.Metrics, log *logger.Logger) *VIXCollector {
	if log == nil {
		log = logger.NewNop()
	}
	return &VIXCollector{stream: stream, governor: governor, metrics: metrics, log: log}
}

// IsConnected returns true if the stream is connected.
func (c *VIXCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *VIXCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	vixCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, vixCh, errCh)
	return nil
}

func (c *VIXCollector) consume(ctx context.Context, vixCh <-chan float64, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil // closed on shutdown; block this arm
				continue
			}
			if err != nil {
				c.metrics.RecordError("vix_stream")
				c.log.Warn("vix stream error, reconnecting", logger.Error(err))
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.log.Error("vix stream reconnect failed", logger.Error(rerr))
					return
				}
				vixCh, errCh = c.stream.Read(ctx)
			}
		case v, ok := <-vixCh:
			if !ok {
				vixCh = nil
				continue
			}
			if v > 0 {
				c.governor.UpdateVIX(v)
			}
		}
	}
}

func (c *VIXCollector) Stop() error { return c.stream.Close() }
