package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// RebalanceHistoryStore implements storage.RebalanceHistoryStore using ClickHouse.
type RebalanceHistoryStore struct {
	conn *Conn
}

// NewRebalanceHistoryStore creates a new RebalanceHistoryStore.
func NewRebalanceHistoryStore(conn *Conn) *RebalanceHistoryStore {
	return &RebalanceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RebalanceHistoryStore = (*RebalanceHistoryStore)(nil)

// InsertBulk adds multiple records. Every record must carry a run ID.
func (s *RebalanceHistoryStore) InsertBulk(ctx context.Context, records []*domain.RebalanceRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer timeQuery("insert_rebalance_history", time.Now())(&err)
	for _, rec := range records {
		if rec == nil || rec.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO rebalance_history (run_id, timestamp, action)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, rec := range records {
		if err := batch.Append(rec.RunID, rec.Timestamp, rec.Action); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
func (s *RebalanceHistoryStore) GetByRunID(ctx context.Context, runID string) (result []*domain.RebalanceRecord, err error) {
	defer timeQuery("get_rebalance_history", time.Now())(&err)

	query := `
		SELECT timestamp, action
		FROM rebalance_history
		WHERE run_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get rebalance history by run id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := &domain.RebalanceRecord{RunID: runID}
		if err := rows.Scan(&rec.Timestamp, &rec.Action); err != nil {
			return nil, fmt.Errorf("scan rebalance record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rebalance history: %w", err)
	}
	return result, nil
}
