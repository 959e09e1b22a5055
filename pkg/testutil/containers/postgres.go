//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// schema mirrors db/migrations/001_init.sql so integration tests run against
// the same tables the deployment does.
const schema = `
CREATE TABLE IF NOT EXISTS cases (
    reference               BIGINT PRIMARY KEY,
    jurisdiction            TEXT NOT NULL,
    case_type_id            TEXT NOT NULL,
    state                   TEXT NOT NULL,
    data                    JSONB,
    data_classification     JSONB,
    security_classification TEXT NOT NULL,
    version                 BIGINT NOT NULL DEFAULT 1,
    created_at              TIMESTAMPTZ NOT NULL,
    last_modified           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS case_audit (
    id                      BIGSERIAL PRIMARY KEY,
    event_id                TEXT NOT NULL,
    case_reference          BIGINT NOT NULL,
    case_type_id            TEXT NOT NULL,
    case_type_version       TEXT NOT NULL DEFAULT '',
    state_id                TEXT NOT NULL,
    state_name              TEXT NOT NULL DEFAULT '',
    event_name              TEXT NOT NULL,
    summary                 TEXT NOT NULL DEFAULT '',
    description             TEXT NOT NULL DEFAULT '',
    actor_id                TEXT NOT NULL,
    actor_first_name        TEXT NOT NULL DEFAULT '',
    actor_last_name         TEXT NOT NULL DEFAULT '',
    security_classification TEXT NOT NULL,
    data                    JSONB,
    data_classification     JSONB,
    created_at              TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_case_audit_reference
    ON case_audit (case_reference, id DESC);

CREATE TABLE IF NOT EXISTS outbox (
    id             UUID PRIMARY KEY,
    aggregate_type TEXT NOT NULL,
    aggregate_id   TEXT NOT NULL,
    event_type     TEXT NOT NULL,
    payload        JSONB NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outbox_created_at ON outbox (created_at);
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// connection pool and the schema applied.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DB        *sql.DB
	DSN       string
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("caseflow"),
		tcpostgres.WithUsername("caseflow"),
		tcpostgres.WithPassword("caseflow"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DB:        db,
		DSN:       dsn,
	}
}

// TruncateTables clears the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
