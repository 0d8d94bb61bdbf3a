package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

// ScanRequestsHandler consumes scan requests from Kafka and runs them
// through the batch scanner. Approved signals reach the backend via the
// scanner's processor; the analysis results themselves are not replied to
// the requester.
type ScanRequestsHandler struct {
	topic   string
	scanner *BatchScanner
	metrics domrepo.Metrics
}

func NewScanRequestsHandler(topic string, scanner *BatchScanner, metrics domrepo.Metrics) *ScanRequestsHandler {
	return &ScanRequestsHandler{topic: topic, scanner: scanner, metrics: metrics}
}

func (h *ScanRequestsHandler) Topic() string { return h.topic }

// incoming message schema: {symbols, index, sector, requested_at}
func (h *ScanRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbols     []string `json:"symbols"`
		Index       string   `json:"index"`
		Sector      string   `json:"sector"`
		RequestedAt int64    `json:"requested_at"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if len(m.Symbols) == 0 {
		h.metrics.RecordError("consumer_empty_request")
		return fmt.Errorf("scan request without symbols")
	}
	if m.Index == "" {
		m.Index = "NIFTY"
	}
	if m.RequestedAt > 1e11 { // ms
		m.RequestedAt = m.RequestedAt / 1000
	}
	if m.RequestedAt > 0 {
		// E2E latency from request time to pickup (approx)
		h.metrics.RecordLatency("scan_pickup_seconds", time.Since(time.Unix(m.RequestedAt, 0)).Seconds())
	}

	start := time.Now()
	h.scanner.Scan(ctx, m.Symbols, m.Index, m.Sector)
	h.metrics.RecordLatency("scan_batch_seconds", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*ScanRequestsHandler)(nil)
