package members

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "siscof/pkg/domain"
	txcontext "siscof/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, member *Member) error {
	query := `
		INSERT INTO members (id, organizational_unit_id, full_name, email, phone, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(member.ID),
		uuid.UUID(member.UnitID),
		member.FullName,
		member.Email,
		member.Phone,
		member.Active,
		member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUnits(ctx context.Context, unitIDs []id.UnitID, limit, offset int) ([]Member, error) {
	if len(unitIDs) == 0 {
		return []Member{}, nil
	}
	ids := make([]string, len(unitIDs))
	for i, unitID := range unitIDs {
		ids[i] = unitID.String()
	}
	query := `
		SELECT id, organizational_unit_id, full_name, email, phone, active, created_at
		FROM members
		WHERE organizational_unit_id = ANY($1::uuid[])
		ORDER BY full_name, id
		LIMIT $2 OFFSET $3
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, ids, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	return scanMembers(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context, limit, offset int) ([]Member, error) {
	query := `
		SELECT id, organizational_unit_id, full_name, email, phone, active, created_at
		FROM members
		ORDER BY full_name, id
		LIMIT $1 OFFSET $2
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()
	return scanMembers(rows)
}

func scanMembers(rows *sql.Rows) ([]Member, error) {
	members := []Member{}
	for rows.Next() {
		var (
			member   Member
			memberID uuid.UUID
			unitID   uuid.UUID
		)
		err := rows.Scan(&memberID, &unitID, &member.FullName, &member.Email, &member.Phone, &member.Active, &member.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		member.ID = id.MemberID(memberID)
		member.UnitID = id.UnitID(unitID)
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}
