package hierarchy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "siscof/pkg/domain"
	"siscof/pkg/platform/sentinel"
	txcontext "siscof/pkg/platform/tx"
)

// PostgresStore persists organizational units. Tree queries use recursive
// CTEs so descendant/ancestor walks stay in the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, unit *Unit) error {
	query := `
		INSERT INTO organizational_units (id, name, level, parent_id, region_code, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(unit.ID),
		unit.Name,
		string(unit.Level),
		nullableUnitID(unit.ParentID),
		unit.RegionCode,
		unit.Active,
		unit.CreatedAt,
		unit.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert unit: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, unitID id.UnitID) (*Unit, error) {
	query := `
		SELECT id, name, level, parent_id, region_code, active, created_at, updated_at
		FROM organizational_units
		WHERE id = $1
	`
	row := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(unitID))
	return scanUnit(row)
}

func (s *PostgresStore) Update(ctx context.Context, unit *Unit) error {
	query := `
		UPDATE organizational_units
		SET name = $2, level = $3, parent_id = $4, region_code = $5, active = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(unit.ID),
		unit.Name,
		string(unit.Level),
		nullableUnitID(unit.ParentID),
		unit.RegionCode,
		unit.Active,
		unit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update unit rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ancestors(ctx context.Context, unitID id.UnitID) ([]*Unit, error) {
	// depth tracks distance from the starting unit so ordering is
	// immediate parent first, root last.
	query := `
		WITH RECURSIVE chain AS (
			SELECT u.*, 0 AS depth
			FROM organizational_units u
			WHERE u.id = $1
			UNION ALL
			SELECT p.*, c.depth + 1
			FROM organizational_units p
			JOIN chain c ON p.id = c.parent_id
		)
		SELECT id, name, level, parent_id, region_code, active, created_at, updated_at
		FROM chain
		WHERE depth > 0
		ORDER BY depth ASC
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(unitID))
	if err != nil {
		return nil, fmt.Errorf("query ancestors: %w", err)
	}
	defer rows.Close()

	units, err := scanUnits(rows)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		// Either the unit is missing or it is a root; disambiguate.
		if _, err := s.FindByID(ctx, unitID); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func (s *PostgresStore) DescendantIDs(ctx context.Context, unitID id.UnitID) ([]id.UnitID, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT u.id
			FROM organizational_units u
			WHERE u.id = $1
			UNION ALL
			SELECT c.id
			FROM organizational_units c
			JOIN subtree s ON c.parent_id = s.id
		)
		SELECT id FROM subtree
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(unitID))
	if err != nil {
		return nil, fmt.Errorf("query descendants: %w", err)
	}
	defer rows.Close()

	ids, err := scanUnitIDs(rows)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return ids, nil
}

func (s *PostgresStore) UnitIDsInRegions(ctx context.Context, regionCodes []string) ([]id.UnitID, error) {
	if len(regionCodes) == 0 {
		return nil, nil
	}
	query := `SELECT id FROM organizational_units WHERE region_code = ANY($1)`
	rows, err := s.q(ctx).QueryContext(ctx, query, regionCodes)
	if err != nil {
		return nil, fmt.Errorf("query units by region: %w", err)
	}
	defer rows.Close()
	return scanUnitIDs(rows)
}

func (s *PostgresStore) HasChildren(ctx context.Context, unitID id.UnitID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM organizational_units WHERE parent_id = $1 AND active)`
	var exists bool
	if err := s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(unitID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check children: %w", err)
	}
	return exists, nil
}

func scanUnit(row *sql.Row) (*Unit, error) {
	var (
		unit     Unit
		unitID   uuid.UUID
		parentID *uuid.UUID
		level    string
	)
	err := row.Scan(&unitID, &unit.Name, &level, &parentID, &unit.RegionCode, &unit.Active, &unit.CreatedAt, &unit.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan unit: %w", err)
	}
	unit.ID = id.UnitID(unitID)
	unit.Level = Level(level)
	if parentID != nil {
		pid := id.UnitID(*parentID)
		unit.ParentID = &pid
	}
	return &unit, nil
}

func scanUnits(rows *sql.Rows) ([]*Unit, error) {
	var units []*Unit
	for rows.Next() {
		var (
			unit     Unit
			unitID   uuid.UUID
			parentID *uuid.UUID
			level    string
		)
		err := rows.Scan(&unitID, &unit.Name, &level, &parentID, &unit.RegionCode, &unit.Active, &unit.CreatedAt, &unit.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		unit.ID = id.UnitID(unitID)
		unit.Level = Level(level)
		if parentID != nil {
			pid := id.UnitID(*parentID)
			unit.ParentID = &pid
		}
		units = append(units, &unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}
	return units, nil
}

func scanUnitIDs(rows *sql.Rows) ([]id.UnitID, error) {
	var ids []id.UnitID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan unit id: %w", err)
		}
		ids = append(ids, id.UnitID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit ids: %w", err)
	}
	return ids, nil
}

func nullableUnitID(unitID *id.UnitID) any {
	if unitID == nil {
		return nil
	}
	return uuid.UUID(*unitID)
}

// isUniqueViolation matches PostgreSQL unique_violation (23505) without
// importing the driver error type here.
func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}
