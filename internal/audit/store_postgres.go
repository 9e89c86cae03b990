package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "siscof/pkg/domain"
	txcontext "siscof/pkg/platform/tx"
)

// PostgresStore persists audit entries using the transactional outbox
// pattern: Append writes the query table and the outbox in the caller's
// transaction, and the outbox worker publishes rows to Kafka afterwards.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON document published to Kafka.
type outboxPayload struct {
	ID             string `json:"id"`
	Action         string `json:"action"`
	RoleName       string `json:"role_name,omitempty"`
	AffectedUserID string `json:"affected_user_id,omitempty"`
	ActorID        string `json:"acting_user_id,omitempty"`
	UnitID         string `json:"organizational_unit_id,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// Append inserts the entry and its outbox row. Failure of either insert
// fails the surrounding transaction, so a grant never commits unaudited.
func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	execer := s.execer(ctx)

	query := `
		INSERT INTO audit_entries (id, action, role_name, affected_user_id, acting_user_id, organizational_unit_id, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := execer.ExecContext(ctx, query,
		entry.ID,
		string(entry.Action),
		entry.RoleName,
		nullableUserID(entry.AffectedUserID),
		nullableUserID(entry.ActorID),
		nullableUnitID(entry.UnitID),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload := outboxPayload{
		ID:        entry.ID.String(),
		Action:    string(entry.Action),
		RoleName:  entry.RoleName,
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
	}
	if !entry.AffectedUserID.IsNil() {
		payload.AffectedUserID = entry.AffectedUserID.String()
	}
	if !entry.ActorID.IsNil() {
		payload.ActorID = entry.ActorID.String()
	}
	if !entry.UnitID.IsNil() {
		payload.UnitID = entry.UnitID.String()
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	outboxQuery := `
		INSERT INTO audit_outbox (id, event_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = execer.ExecContext(ctx, outboxQuery, uuid.New(), entry.ID, payloadBytes, time.Now())
	if err != nil {
		return fmt.Errorf("insert audit outbox row: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `
		SELECT id, action, role_name, affected_user_id, acting_user_id, organizational_unit_id, timestamp
		FROM audit_entries
		WHERE ($1::uuid IS NULL OR organizational_unit_id = $1)
		  AND ($2::timestamptz IS NULL OR timestamp >= $2)
		  AND ($3::timestamptz IS NULL OR timestamp <= $3)
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query,
		nullableUnitID(filter.UnitID),
		nullableTime(filter.From),
		nullableTime(filter.To),
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, action, role_name, affected_user_id, acting_user_id, organizational_unit_id, timestamp
		FROM audit_entries
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			action   string
			affected *uuid.UUID
			actor    *uuid.UUID
			unit     *uuid.UUID
		)
		err := rows.Scan(&entry.ID, &action, &entry.RoleName, &affected, &actor, &unit, &entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = Action(action)
		if affected != nil {
			entry.AffectedUserID = id.UserID(*affected)
		}
		if actor != nil {
			entry.ActorID = id.UserID(*actor)
		}
		if unit != nil {
			entry.UnitID = id.UnitID(*unit)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullableUserID(userID id.UserID) any {
	if userID.IsNil() {
		return nil
	}
	return uuid.UUID(userID)
}

func nullableUnitID(unitID id.UnitID) any {
	if unitID.IsNil() {
		return nil
	}
	return uuid.UUID(unitID)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
