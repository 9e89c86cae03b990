package roles

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "siscof/pkg/domain"
	txcontext "siscof/pkg/platform/tx"
)

// PostgresStore persists role assignments. The (user, unit, role) primary
// key enforces idempotence server-side; ON CONFLICT DO NOTHING turns the
// duplicate-grant race into a clean no-op.
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

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, assignment *Assignment) (bool, error) {
	query := `
		INSERT INTO role_assignments (user_id, organizational_unit_id, role_name, is_manipulator, granted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, organizational_unit_id, role_name) DO NOTHING
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(assignment.UserID),
		uuid.UUID(assignment.UnitID),
		string(assignment.Role),
		assignment.IsManipulator,
		assignment.GrantedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert role assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("role assignment rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID, unitID id.UnitID, role RoleName) (bool, error) {
	query := `
		DELETE FROM role_assignments
		WHERE user_id = $1 AND organizational_unit_id = $2 AND role_name = $3
	`
	res, err := s.q(ctx).ExecContext(ctx, query, uuid.UUID(userID), uuid.UUID(unitID), string(role))
	if err != nil {
		return false, fmt.Errorf("delete role assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("role assignment rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Assignment, error) {
	query := `
		SELECT user_id, organizational_unit_id, role_name, is_manipulator, granted_at
		FROM role_assignments
		WHERE user_id = $1
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("query role assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (s *PostgresStore) ListByUnit(ctx context.Context, unitID id.UnitID) ([]Assignment, error) {
	query := `
		SELECT user_id, organizational_unit_id, role_name, is_manipulator, granted_at
		FROM role_assignments
		WHERE organizational_unit_id = $1
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(unitID))
	if err != nil {
		return nil, fmt.Errorf("query role assignments: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows *sql.Rows) ([]Assignment, error) {
	var assignments []Assignment
	for rows.Next() {
		var (
			assignment Assignment
			userID     uuid.UUID
			unitID     uuid.UUID
			role       string
		)
		err := rows.Scan(&userID, &unitID, &role, &assignment.IsManipulator, &assignment.GrantedAt)
		if err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		assignment.UserID = id.UserID(userID)
		assignment.UnitID = id.UnitID(unitID)
		assignment.Role = RoleName(role)
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role assignments: %w", err)
	}
	return assignments, nil
}
