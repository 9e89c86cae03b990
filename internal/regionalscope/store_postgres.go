package regionalscope

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "siscof/pkg/domain"
	txcontext "siscof/pkg/platform/tx"
)

// PostgresStore persists scopes one row per (user, region code). Replace
// runs delete-then-insert; when the caller carries a transaction in ctx
// both statements join it, otherwise the store opens its own.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) q(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) ([]string, error) {
	query := `SELECT region_code FROM regional_scopes WHERE user_id = $1 ORDER BY region_code`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query regional scope: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan region code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regional scope: %w", err)
	}
	return codes, nil
}

func (s *PostgresStore) Replace(ctx context.Context, userID id.UserID, regionCodes []string) error {
	if _, ok := txcontext.From(ctx); ok {
		return s.replace(ctx, s.q(ctx), userID, regionCodes)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace scope: %w", err)
	}
	if err := s.replace(ctx, tx, userID, regionCodes); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace scope: %w", err)
	}
	return nil
}

func (s *PostgresStore) replace(ctx context.Context, q execer, userID id.UserID, regionCodes []string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM regional_scopes WHERE user_id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("clear regional scope: %w", err)
	}
	for _, code := range regionCodes {
		_, err := q.ExecContext(ctx,
			`INSERT INTO regional_scopes (user_id, region_code) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			uuid.UUID(userID), code,
		)
		if err != nil {
			return fmt.Errorf("insert region code: %w", err)
		}
	}
	return nil
}
