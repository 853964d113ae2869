package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

func TestPortfolioHistoryStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPortfolioHistoryStore(conn)
	ctx := context.Background()

	// Test empty insert
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	snapshots := []*domain.PortfolioSnapshot{
		{
			RunID:         "run-1",
			Timestamp:     1000,
			Price:         15.2,
			TotalValueToX: 7.5,
			TotalValueToY: 114.0,
			Positions: []domain.PositionSnapshot{
				{Name: "vault", Kind: domain.PositionKindBalance, ValueX: 1, ValueY: 10},
				{Name: "range", Kind: domain.PositionKindInterval, ValueX: 0.5, ValueY: 50, FeesY: 0.1, TxCosts: 0.5},
			},
		},
		{
			// Same timestamp as the first snapshot: the snapshot index keeps them apart.
			RunID:         "run-1",
			Timestamp:     1000,
			Price:         15.3,
			TotalValueToX: 7.4,
			TotalValueToY: 113.0,
			Positions: []domain.PositionSnapshot{
				{Name: "vault", Kind: domain.PositionKindBalance, ValueX: 1, ValueY: 10},
			},
		},
	}

	err = store.InsertBulk(ctx, snapshots)
	require.NoError(t, err)

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "run-1", got[0].RunID)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, 15.2, got[0].Price)
	require.Len(t, got[0].Positions, 2)
	assert.Equal(t, "range", got[0].Positions[1].Name)
	assert.Equal(t, 0.1, got[0].Positions[1].FeesY)
	assert.Equal(t, 0.5, got[0].Positions[1].TxCosts)

	assert.Equal(t, 15.3, got[1].Price)
	require.Len(t, got[1].Positions, 1)
}

func TestPortfolioHistoryStore_AppendsAcrossBatches(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPortfolioHistoryStore(conn)
	ctx := context.Background()

	first := []*domain.PortfolioSnapshot{
		{RunID: "run-1", Timestamp: 1000, Price: 15.0},
	}
	second := []*domain.PortfolioSnapshot{
		{RunID: "run-1", Timestamp: 2000, Price: 15.5},
	}

	require.NoError(t, store.InsertBulk(ctx, first))
	require.NoError(t, store.InsertBulk(ctx, second))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, int64(2000), got[1].Timestamp)
}

func TestPortfolioHistoryStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPortfolioHistoryStore(conn)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PortfolioSnapshot{{Timestamp: 1000}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	mixed := []*domain.PortfolioSnapshot{
		{RunID: "run-1", Timestamp: 1000},
		{RunID: "run-2", Timestamp: 2000},
	}
	err = store.InsertBulk(ctx, mixed)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRebalanceHistoryStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRebalanceHistoryStore(conn)
	ctx := context.Background()

	records := []*domain.RebalanceRecord{
		{RunID: "run-1", Timestamp: 2000, Action: domain.ActionBurn},
		{RunID: "run-1", Timestamp: 1000, Action: domain.ActionMint},
		{RunID: "run-2", Timestamp: 1500, Action: domain.ActionMint},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ActionMint, got[0].Action)
	assert.Equal(t, domain.ActionBurn, got[1].Action)
	assert.Equal(t, "run-1", got[0].RunID)
}

func TestIntervalHistoryStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewIntervalHistoryStore(conn)
	ctx := context.Background()

	snapshots := []*domain.IntervalSnapshot{
		{RunID: "run-1", Timestamp: 1000, Name: "range", LowerPrice: 15, UpperPrice: 16, Liquidity: 42.5, FeesY: 0.01},
	}
	require.NoError(t, store.InsertBulk(ctx, snapshots))

	got, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "range", got[0].Name)
	assert.Equal(t, 15.0, got[0].LowerPrice)
	assert.Equal(t, 16.0, got[0].UpperPrice)
	assert.Equal(t, 42.5, got[0].Liquidity)
	assert.Equal(t, 0.01, got[0].FeesY)

	empty, err := store.GetByRunID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
