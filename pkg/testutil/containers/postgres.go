//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema creates every table the stores expect. Kept here rather than in a
// migration tool so integration tests stay self-contained.
const schema = `
CREATE TABLE IF NOT EXISTS organizational_units (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	level TEXT NOT NULL,
	parent_id UUID REFERENCES organizational_units(id),
	region_code TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_units_parent ON organizational_units(parent_id);
CREATE INDEX IF NOT EXISTS idx_units_region ON organizational_units(region_code);

CREATE TABLE IF NOT EXISTS role_assignments (
	user_id UUID NOT NULL,
	organizational_unit_id UUID NOT NULL REFERENCES organizational_units(id),
	role_name TEXT NOT NULL,
	is_manipulator BOOLEAN NOT NULL DEFAULT FALSE,
	granted_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, organizational_unit_id, role_name)
);
CREATE INDEX IF NOT EXISTS idx_assignments_unit ON role_assignments(organizational_unit_id);

CREATE TABLE IF NOT EXISTS regional_scopes (
	user_id UUID NOT NULL,
	region_code TEXT NOT NULL,
	PRIMARY KEY (user_id, region_code)
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id UUID PRIMARY KEY,
	action TEXT NOT NULL,
	role_name TEXT NOT NULL DEFAULT '',
	affected_user_id UUID,
	acting_user_id UUID,
	organizational_unit_id UUID,
	timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_unit ON audit_entries(organizational_unit_id);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_entries(timestamp);

CREATE TABLE IF NOT EXISTS audit_outbox (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	id UUID PRIMARY KEY,
	organizational_unit_id UUID NOT NULL REFERENCES organizational_units(id),
	full_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_members_unit ON members(organizational_unit_id);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// database handle and the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("siscof_test"),
		tcpostgres.WithUsername("siscof"),
		tcpostgres.WithPassword("siscof"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateAll clears every table. Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateAll(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE audit_outbox, audit_entries, members, regional_scopes,
			role_assignments, organizational_units CASCADE
	`)
	return err
}
