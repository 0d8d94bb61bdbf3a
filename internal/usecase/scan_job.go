package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/pkg/queue"
)

// ScanJobType is the queue message type for asynchronous scan requests.
const ScanJobType = "scan_request"

// ScanJobPayload is the body of a queued scan request.
type ScanJobPayload struct {
	Symbols []string `json:"symbols"`
	Index   string   `json:"index"`
	Sector  string   `json:"sector"`
}

// ScanJob runs queued scan requests through the batch scanner. It backs the
// async variant of the scan endpoint: the HTTP call returns immediately and
// the scan runs on a queue worker.
type ScanJob struct {
	scanner *BatchScanner
	metrics domrepo.Metrics
}

func NewScanJob(scanner *BatchScanner, metrics domrepo.Metrics) *ScanJob {
	return &ScanJob{scanner: scanner, metrics: metrics}
}

func (j *ScanJob) Name() string { return "batch-scan" }
func (j *ScanJob) Type() string { return ScanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScanJobPayload](payload)
	if err != nil {
		j.metrics.RecordError("scan_job_payload")
		return err
	}
	if len(p.Symbols) == 0 {
		j.metrics.RecordError("scan_job_empty")
		return fmt.Errorf("scan job without symbols")
	}
	if p.Index == "" {
		p.Index = "NIFTY"
	}

	start := time.Now()
	j.scanner.Scan(ctx, p.Symbols, p.Index, p.Sector)
	j.metrics.RecordLatency("scan_job_seconds", time.Since(start).Seconds())
	return nil
}

var _ queue.Job = (*ScanJob)(nil)
