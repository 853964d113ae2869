package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a ClickHouse container and returns a connection.
// Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60 * time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := NewConn(ctx, dsn)
	require.NoError(t, err)

	applySchema(t, conn)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

// applySchema creates the history tables. Kept in sync with the embedded
// migrations in internal/storage/migrations/clickhouse, which the package
// cannot import here without a cycle.
func applySchema(t *testing.T, conn *Conn) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolio_history (
			run_id           String,
			snapshot_idx     UInt64,
			timestamp        Int64,
			price            Float64,
			total_value_to_x Float64,
			total_value_to_y Float64,
			position_name    String,
			position_kind    String,
			value_x          Float64,
			value_y          Float64,
			fees_x           Float64,
			fees_y           Float64,
			il_to_x          Float64,
			il_to_y          Float64,
			tx_costs         Float64
		) ENGINE = MergeTree()
		ORDER BY (run_id, snapshot_idx, position_name)`,
		`CREATE TABLE IF NOT EXISTS rebalance_history (
			run_id    String,
			timestamp Int64,
			action    String
		) ENGINE = MergeTree()
		ORDER BY (run_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS interval_history (
			run_id      String,
			timestamp   Int64,
			name        String,
			lower_price Float64,
			upper_price Float64,
			liquidity   Float64,
			fees_x      Float64,
			fees_y      Float64
		) ENGINE = MergeTree()
		ORDER BY (run_id, timestamp, name)`,
	}
	for _, stmt := range stmts {
		require.NoError(t, conn.Exec(ctx, stmt))
	}
}
