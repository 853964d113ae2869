package storage

import (
	"context"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
)

// PoolEventStore provides access to pool_events storage.
type PoolEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if
	// (pool, tx_hash, log_index) exists.
	Insert(ctx context.Context, e *domain.PoolEvent) error

	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, events []*domain.PoolEvent) error

	// GetByPool retrieves all events for a pool, ordered by
	// (block, tx_hash, log_index) ASC.
	GetByPool(ctx context.Context, pool string) ([]*domain.PoolEvent, error)

	// GetByTimeRange retrieves events for a pool within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, pool string, start, end int64) ([]*domain.PoolEvent, error)
}

// PortfolioHistoryStore provides access to portfolio_history storage.
// Histories are append-only run logs: rows carry no unique key beyond the
// run ID, and insertion order within a run is preserved by timestamp.
type PortfolioHistoryStore interface {
	// InsertBulk adds multiple snapshots. Every snapshot must carry a run ID.
	InsertBulk(ctx context.Context, snapshots []*domain.PortfolioSnapshot) error

	// GetByRunID retrieves all snapshots for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.PortfolioSnapshot, error)
}

// RebalanceHistoryStore provides access to rebalance_history storage.
type RebalanceHistoryStore interface {
	// InsertBulk adds multiple records. Every record must carry a run ID.
	InsertBulk(ctx context.Context, records []*domain.RebalanceRecord) error

	// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.RebalanceRecord, error)
}

// IntervalHistoryStore provides access to interval_history storage.
type IntervalHistoryStore interface {
	// InsertBulk adds multiple snapshots. Every snapshot must carry a run ID.
	InsertBulk(ctx context.Context, snapshots []*domain.IntervalSnapshot) error

	// GetByRunID retrieves all snapshots for a run, ordered by timestamp ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.IntervalSnapshot, error)
}
