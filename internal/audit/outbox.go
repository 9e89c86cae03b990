package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic is the Kafka topic audit entries are published to for downstream
// compliance consumers. The database remains the query source of truth.
const Topic = "siscof.audit.entries"

const defaultPollInterval = 2 * time.Second

// OutboxWorker drains audit_outbox rows into Kafka. Rows are deleted only
// after a successful produce, so delivery is at-least-once; consumers key
// on the entry id for deduplication.
type OutboxWorker struct {
	db       *sql.DB
	client   *kgo.Client
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type OutboxOption func(*OutboxWorker)

func WithPollInterval(interval time.Duration) OutboxOption {
	return func(w *OutboxWorker) { w.interval = interval }
}

func WithBatchSize(batch int) OutboxOption {
	return func(w *OutboxWorker) { w.batch = batch }
}

func NewOutboxWorker(db *sql.DB, client *kgo.Client, logger *slog.Logger, opts ...OutboxOption) *OutboxWorker {
	w := &OutboxWorker{
		db:       db,
		client:   client,
		logger:   logger,
		interval: defaultPollInterval,
		batch:    100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// EnsureTopic creates the audit topic if the cluster does not have it yet.
// Called once at startup before the worker runs.
func EnsureTopic(ctx context.Context, client *kgo.Client, partitions int32) error {
	adm := kadm.NewClient(client)
	topics, err := adm.ListTopics(ctx)
	if err != nil {
		return fmt.Errorf("list kafka topics: %w", err)
	}
	if topics.Has(Topic) {
		return nil
	}
	if _, err := adm.CreateTopic(ctx, partitions, 1, nil, Topic); err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	return nil
}

// Run polls the outbox until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				// Delivery retries on the next tick; the rows are still in
				// the outbox.
				w.logger.WarnContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

type outboxRow struct {
	id      uuid.UUID
	eventID uuid.UUID
	payload []byte
}

func (w *OutboxWorker) drainOnce(ctx context.Context) error {
	rows, err := w.fetchBatch(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	for _, row := range rows {
		record := &kgo.Record{
			Topic: Topic,
			Key:   []byte(row.eventID.String()),
			Value: row.payload,
		}
		if err := w.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("produce audit record: %w", err)
		}
		if err := w.deleteRow(ctx, row.id); err != nil {
			return err
		}
	}
	return nil
}

func (w *OutboxWorker) fetchBatch(ctx context.Context) ([]outboxRow, error) {
	query := `
		SELECT id, event_id, payload
		FROM audit_outbox
		ORDER BY created_at ASC
		LIMIT $1
	`
	result, err := w.db.QueryContext(ctx, query, w.batch)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox batch: %w", err)
	}
	defer result.Close()

	var rows []outboxRow
	for result.Next() {
		var row outboxRow
		if err := result.Scan(&row.id, &row.eventID, &row.payload); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return rows, nil
}

func (w *OutboxWorker) deleteRow(ctx context.Context, rowID uuid.UUID) error {
	if _, err := w.db.ExecContext(ctx, `DELETE FROM audit_outbox WHERE id = $1`, rowID); err != nil {
		return fmt.Errorf("delete outbox row: %w", err)
	}
	return nil
}
