package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the pool_events table. Kept in sync with the embedded
// migrations in internal/storage/migrations/postgres, which this package
// cannot import without a cycle.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	schema := `
		CREATE TABLE IF NOT EXISTS pool_events (
			id           BIGSERIAL PRIMARY KEY,
			pool         TEXT NOT NULL,
			block        BIGINT NOT NULL,
			tx_hash      TEXT NOT NULL,
			log_index    INTEGER NOT NULL,
			timestamp    BIGINT NOT NULL,
			kind         TEXT NOT NULL,
			price_before DOUBLE PRECISION NOT NULL DEFAULT 0,
			price        DOUBLE PRECISION NOT NULL,
			lower_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
			upper_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
			liquidity    DOUBLE PRECISION NOT NULL DEFAULT 0,
			amount_x     DOUBLE PRECISION NOT NULL DEFAULT 0,
			amount_y     DOUBLE PRECISION NOT NULL DEFAULT 0,
			owner        TEXT NOT NULL DEFAULT '',
			created_at   BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM now())::BIGINT,
			CONSTRAINT pool_events_unique UNIQUE (pool, tx_hash, log_index)
		)
	`
	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err, "failed to apply schema")
}
