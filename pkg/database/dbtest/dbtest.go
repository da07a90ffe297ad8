// Package dbtest starts a throwaway Postgres for repository tests.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kinderbasar/backend/pkg/database"
)

var (
	once    sync.Once
	shared  *pgxpool.Pool
	initErr error
)

const truncateAll = `TRUNCATE planning_helpers, plannings, billing_articles, billings, label_exports,
	articles, sellers, seller_registrations, email_outbox, events, user_tokens, users CASCADE`

// New returns a pool on a migrated, empty database. The container is shared by all
// tests of a package; tables are truncated on every call. Skipped in -short mode.
func New(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() { shared, initErr = start(context.Background()) })
	if initErr != nil {
		t.Fatalf("start postgres: %v", initErr)
	}
	if _, err := shared.Exec(context.Background(), truncateAll); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return shared
}

func start(ctx context.Context) (*pgxpool.Pool, error) {
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "kinderbasar",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}
	host, err := ctr.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/kinderbasar?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
