package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// IntervalHistoryStore implements storage.IntervalHistoryStore using ClickHouse.
type IntervalHistoryStore struct {
	conn *Conn
}

// NewIntervalHistoryStore creates a new IntervalHistoryStore.
func NewIntervalHistoryStore(conn *Conn) *IntervalHistoryStore {
	return &IntervalHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IntervalHistoryStore = (*IntervalHistoryStore)(nil)

// InsertBulk adds multiple snapshots. Every snapshot must carry a run ID.
func (s *IntervalHistoryStore) InsertBulk(ctx context.Context, snapshots []*domain.IntervalSnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	defer timeQuery("insert_interval_history", time.Now())(&err)
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO interval_history (
			run_id, timestamp, name, lower_price, upper_price, liquidity, fees_x, fees_y
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.RunID, snap.Timestamp, snap.Name,
			snap.LowerPrice, snap.UpperPrice, snap.Liquidity,
			snap.FeesX, snap.FeesY,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all snapshots for a run, ordered by timestamp ASC.
func (s *IntervalHistoryStore) GetByRunID(ctx context.Context, runID string) (result []*domain.IntervalSnapshot, err error) {
	defer timeQuery("get_interval_history", time.Now())(&err)

	query := `
		SELECT timestamp, name, lower_price, upper_price, liquidity, fees_x, fees_y
		FROM interval_history
		WHERE run_id = ?
		ORDER BY timestamp ASC, name ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get interval history by run id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		snap := &domain.IntervalSnapshot{RunID: runID}
		err := rows.Scan(
			&snap.Timestamp, &snap.Name,
			&snap.LowerPrice, &snap.UpperPrice, &snap.Liquidity,
			&snap.FeesX, &snap.FeesY,
		)
		if err != nil {
			return nil, fmt.Errorf("scan interval snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interval history: %w", err)
	}
	return result, nil
}
