package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/observability"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// PoolEventStore implements storage.PoolEventStore using PostgreSQL.
type PoolEventStore struct {
	pool *Pool
}

// NewPoolEventStore creates a new PoolEventStore.
func NewPoolEventStore(pool *Pool) *PoolEventStore {
	return &PoolEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolEventStore = (*PoolEventStore)(nil)

const insertEventQuery = `
	INSERT INTO pool_events (
		pool, block, tx_hash, log_index, timestamp, kind,
		price_before, price, lower_price, upper_price, liquidity,
		amount_x, amount_y, owner
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

// Insert adds a new event. Returns ErrDuplicateKey if (pool, tx_hash, log_index) exists.
func (s *PoolEventStore) Insert(ctx context.Context, e *domain.PoolEvent) (err error) {
	if e == nil || e.Pool == "" {
		return storage.ErrInvalidInput
	}
	defer timeQuery("insert", time.Now())(&err)

	_, err = s.pool.Exec(ctx, insertEventQuery,
		e.Pool,
		e.Block,
		e.TxHash,
		e.LogIndex,
		e.Timestamp,
		e.Kind,
		e.PriceBefore,
		e.Price,
		e.LowerPrice,
		e.UpperPrice,
		e.Liquidity,
		e.AmountX,
		e.AmountY,
		e.Owner,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool event: %w", err)
	}
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *PoolEventStore) InsertBulk(ctx context.Context, events []*domain.PoolEvent) (err error) {
	if len(events) == 0 {
		return nil
	}
	defer timeQuery("insert_bulk", time.Now())(&err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		if e == nil || e.Pool == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertEventQuery,
			e.Pool,
			e.Block,
			e.TxHash,
			e.LogIndex,
			e.Timestamp,
			e.Kind,
			e.PriceBefore,
			e.Price,
			e.LowerPrice,
			e.UpperPrice,
			e.Liquidity,
			e.AmountX,
			e.AmountY,
			e.Owner,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert pool event in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const selectEventColumns = `
	SELECT id, pool, block, tx_hash, log_index, timestamp, kind,
		price_before, price, lower_price, upper_price, liquidity,
		amount_x, amount_y, owner, created_at
	FROM pool_events
`

// GetByPool retrieves all events for a pool, ordered by (block, tx_hash, log_index) ASC.
func (s *PoolEventStore) GetByPool(ctx context.Context, pool string) (events []*domain.PoolEvent, err error) {
	defer timeQuery("get_by_pool", time.Now())(&err)

	query := selectEventColumns + `
		WHERE pool = $1
		ORDER BY block ASC, tx_hash ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("get pool events by pool: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByTimeRange retrieves events for a pool within [start, end] (inclusive).
func (s *PoolEventStore) GetByTimeRange(ctx context.Context, pool string, start, end int64) (events []*domain.PoolEvent, err error) {
	defer timeQuery("get_by_time_range", time.Now())(&err)

	query := selectEventColumns + `
		WHERE pool = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY block ASC, tx_hash ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, pool, start, end)
	if err != nil {
		return nil, fmt.Errorf("get pool events by time range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// timeQuery reports query duration and outcome to the metrics registry.
func timeQuery(operation string, started time.Time) func(*error) {
	return func(err *error) {
		observability.RecordDBQuery("postgres", operation, time.Since(started).Seconds(), *err)
	}
}

// scanEvents scans rows into pool events.
func scanEvents(rows pgx.Rows) ([]*domain.PoolEvent, error) {
	var result []*domain.PoolEvent
	for rows.Next() {
		var e domain.PoolEvent
		err := rows.Scan(
			&e.ID,
			&e.Pool,
			&e.Block,
			&e.TxHash,
			&e.LogIndex,
			&e.Timestamp,
			&e.Kind,
			&e.PriceBefore,
			&e.Price,
			&e.LowerPrice,
			&e.UpperPrice,
			&e.Liquidity,
			&e.AmountX,
			&e.AmountY,
			&e.Owner,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool event: %w", err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool events: %w", err)
	}
	return result, nil
}
