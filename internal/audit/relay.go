package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"caseflow/internal/platform/metrics"
)

const (
	relayPollInterval = 500 * time.Millisecond
	relayBatchSize    = 100
)

// Relay drains the outbox table into Kafka. It runs beside the HTTP server
// and never participates in mutation transactions: a relay outage delays
// publication but cannot fail a committed mutation.
type Relay struct {
	db      *sql.DB
	client  *kgo.Client
	topic   string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRelay(db *sql.DB, client *kgo.Client, topic string, logger *slog.Logger, m *metrics.Metrics) *Relay {
	return &Relay{db: db, client: client, topic: topic, logger: logger, metrics: m}
}

// EnsureTopic creates the audit topic when it does not exist yet. Safe to
// call on every start.
func (r *Relay) EnsureTopic(ctx context.Context, partitions int32) error {
	adm := kadm.NewClient(r.client)
	resp, err := adm.CreateTopic(ctx, partitions, 1, nil, r.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic %q: %w", r.topic, resp.Err)
	}
	return nil
}

// Run polls the outbox until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(relayPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// drainOnce publishes up to one batch of outbox rows. Rows are locked with
// SKIP LOCKED so multiple relay instances do not double-publish, and deleted
// only after the produce acks.
func (r *Relay) drainOnce(ctx context.Context) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	rows, err := dbtx.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload
		FROM outbox
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, relayBatchSize)
	if err != nil {
		return fmt.Errorf("select outbox rows: %w", err)
	}

	type outboxRow struct {
		id          string
		aggregateID string
		eventType   string
		payload     []byte
	}
	var batch []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.aggregateID, &row.eventType, &row.payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(batch))
	for _, row := range batch {
		records = append(records, &kgo.Record{
			Topic: r.topic,
			Key:   []byte(row.aggregateID),
			Value: row.payload,
		})
	}
	if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		if r.metrics != nil {
			r.metrics.OutboxPublishError.Inc()
		}
		return fmt.Errorf("produce outbox batch: %w", err)
	}

	ids := make([]string, 0, len(batch))
	for _, row := range batch {
		ids = append(ids, row.id)
	}
	if _, err := dbtx.ExecContext(ctx, `DELETE FROM outbox WHERE id = ANY($1::uuid[])`, pq.Array(ids)); err != nil {
		return fmt.Errorf("delete published outbox rows: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit outbox tx: %w", err)
	}

	if r.metrics != nil {
		r.metrics.OutboxPublished.Add(float64(len(batch)))
	}
	return nil
}
