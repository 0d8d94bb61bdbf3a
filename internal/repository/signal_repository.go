package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgkafka "SignalDesk/pkg/kafka"
)

// Schema DDL for the signals table (idempotent).
var SignalSchema = []string{
	`CREATE DATABASE IF NOT EXISTS signaldesk`,
	`CREATE TABLE IF NOT EXISTS signaldesk.trade_signals (
        generated_at  DateTime,
        symbol        LowCardinality(String),
        engine        LowCardinality(String),
        direction     LowCardinality(String),
        setup_kind    LowCardinality(String),
        sector        LowCardinality(String),
        probability   Float64,
        entry         Float64,
        stop_loss     Float64,
        target        Float64,
        targets       String,
        runner_mode   UInt8,
        trail_method  LowCardinality(String),
        risk_pct      Float64,
        shares        Int32,
        expected_hold LowCardinality(String),
        index_aligned UInt8,
        trend         LowCardinality(String),
        current_price Float64,
        components    String
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(generated_at)
    ORDER BY (symbol, generated_at)`,
}

const signalColumns = `generated_at, symbol, engine, direction, setup_kind, sector,
    probability, entry, stop_loss, target, targets, runner_mode, trail_method,
    risk_pct, shares, expected_hold, index_aligned, trend, current_price, components`

// ClickHouseSignalStore implements SignalStore for ClickHouse.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalStore creates ClickHouse signal storage.
func NewClickHouseSignalStore(db *sql.DB, table string) domrepo.SignalStore {
	if table == "" {
		table = "signaldesk.trade_signals"
	}
	return &ClickHouseSignalStore{db: db, table: table}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	for _, stmt := range SignalSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init signal schema: %w", err)
		}
	}
	return nil
}

func (s *ClickHouseSignalStore) Store(ctx context.Context, sig *models.TradeSignal) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, signalColumns, placeholders(20))
	_, err := s.db.ExecContext(ctx, q, signalArgs(sig)...)
	return err
}

func (s *ClickHouseSignalStore) StoreBatch(ctx context.Context, signals []*models.TradeSignal) error {
	if len(signals) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips; signal volume is tiny next to
	// tick data, so one chunk size fits.
	const chunkSize = 500
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*20)
		for _, sig := range signals[start:end] {
			if sig == nil || sig.Symbol == "" {
				continue
			}
			values = append(values, "("+placeholders(20)+")")
			args = append(args, signalArgs(sig)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, signalColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSignalStore) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradeSignal, error) {
	where := "generated_at >= ? AND generated_at <= ?"
	args := []interface{}{from, to}
	if symbol != "" {
		where = "symbol = ? AND " + where
		args = append([]interface{}{symbol}, args...)
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY generated_at DESC LIMIT ?`,
		signalColumns, s.table, where)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []*models.TradeSignal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // pool managed by pkg client
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n-1)+"?", " ")
}

func signalArgs(sig *models.TradeSignal) []interface{} {
	targets, _ := json.Marshal(sig.Targets)
	components, _ := json.Marshal(sig.Components)
	return []interface{}{
		sig.GeneratedAt,
		sig.Symbol,
		string(sig.Engine),
		string(sig.Direction),
		sig.SetupKind,
		sig.Sector,
		sig.Probability,
		sig.Entry,
		sig.StopLoss,
		sig.Target,
		string(targets),
		boolToUInt8(sig.RunnerMode),
		string(sig.TrailMethod),
		sig.RiskPct,
		int32(sig.Shares),
		sig.ExpectedHold,
		boolToUInt8(sig.IndexAligned),
		string(sig.Trend),
		sig.CurrentPrice,
		string(components),
	}
}

func scanSignal(rows *sql.Rows) (*models.TradeSignal, error) {
	var (
		sig          models.TradeSignal
		engine       string
		direction    string
		trailMethod  string
		trend        string
		targets      string
		components   string
		runnerMode   uint8
		indexAligned uint8
		shares       int32
	)
	if err := rows.Scan(
		&sig.GeneratedAt, &sig.Symbol, &engine, &direction, &sig.SetupKind, &sig.Sector,
		&sig.Probability, &sig.Entry, &sig.StopLoss, &sig.Target, &targets,
		&runnerMode, &trailMethod, &sig.RiskPct, &shares, &sig.ExpectedHold,
		&indexAligned, &trend, &sig.CurrentPrice, &components,
	); err != nil {
		return nil, fmt.Errorf("scan signal: %w", err)
	}
	sig.Engine = models.EngineType(engine)
	sig.EngineLabel = sig.Engine.Label()
	sig.Direction = models.TradeDirection(direction)
	sig.TrailMethod = models.TrailingMethod(trailMethod)
	sig.Trend = models.TrendStrength(trend)
	sig.RunnerMode = runnerMode != 0
	sig.IndexAligned = indexAligned != 0
	sig.Shares = int(shares)
	if targets != "" && targets != "null" {
		_ = json.Unmarshal([]byte(targets), &sig.Targets)
	}
	if components != "" && components != "null" {
		_ = json.Unmarshal([]byte(components), &sig.Components)
	}
	return &sig, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// KafkaSignalPublisher implements SignalPublisher for Kafka.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates Kafka publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) domrepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.TradeSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), signalPayload(sig))
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []*models.TradeSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, sig := range signals {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(sig.Symbol),
			Value: signalPayload(sig),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func signalPayload(sig *models.TradeSignal) map[string]interface{} {
	return map[string]interface{}{
		"symbol":        sig.Symbol,
		"generated_at":  sig.GeneratedAt.Unix(),
		"engine":        string(sig.Engine),
		"engine_label":  sig.EngineLabel,
		"direction":     string(sig.Direction),
		"setup_kind":    sig.SetupKind,
		"probability":   sig.Probability,
		"entry":         sig.Entry,
		"stop_loss":     sig.StopLoss,
		"target":        sig.Target,
		"targets":       sig.Targets,
		"runner_mode":   sig.RunnerMode,
		"trail_method":  string(sig.TrailMethod),
		"risk_pct":      sig.RiskPct,
		"shares":        sig.Shares,
		"expected_hold": sig.ExpectedHold,
		"sector":        sig.Sector,
		"index_aligned": sig.IndexAligned,
		"trend":         string(sig.Trend),
		"current_price": sig.CurrentPrice,
	}
}
