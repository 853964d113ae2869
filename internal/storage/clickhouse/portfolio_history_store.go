package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// PortfolioHistoryStore implements storage.PortfolioHistoryStore using
// ClickHouse. Snapshots are flattened to one row per position; rows carry a
// per-run snapshot index so snapshots sharing a timestamp reassemble
// unambiguously.
type PortfolioHistoryStore struct {
	conn *Conn
}

// NewPortfolioHistoryStore creates a new PortfolioHistoryStore.
func NewPortfolioHistoryStore(conn *Conn) *PortfolioHistoryStore {
	return &PortfolioHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PortfolioHistoryStore = (*PortfolioHistoryStore)(nil)

// InsertBulk adds multiple snapshots. Every snapshot must carry a run ID.
func (s *PortfolioHistoryStore) InsertBulk(ctx context.Context, snapshots []*domain.PortfolioSnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	defer timeQuery("insert_portfolio_history", time.Now())(&err)
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
		// One batch belongs to one run; the snapshot index is per-run.
		if snap.RunID != snapshots[0].RunID {
			return storage.ErrInvalidInput
		}
	}

	base, err := s.nextSnapshotIdx(ctx, snapshots[0].RunID)
	if err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO portfolio_history (
			run_id, snapshot_idx, timestamp, price,
			total_value_to_x, total_value_to_y,
			position_name, position_kind,
			value_x, value_y, fees_x, fees_y, il_to_x, il_to_y, tx_costs
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, snap := range snapshots {
		idx := base + uint64(i)
		positions := snap.Positions
		if len(positions) == 0 {
			// Keep a marker row so empty snapshots survive the round trip.
			positions = []domain.PositionSnapshot{{}}
		}
		for _, ps := range positions {
			err = batch.Append(
				snap.RunID, idx, snap.Timestamp, snap.Price,
				snap.TotalValueToX, snap.TotalValueToY,
				ps.Name, ps.Kind,
				ps.ValueX, ps.ValueY, ps.FeesX, ps.FeesY, ps.ILToX, ps.ILToY, ps.TxCosts,
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRunID retrieves all snapshots for a run, ordered by timestamp ASC.
func (s *PortfolioHistoryStore) GetByRunID(ctx context.Context, runID string) (result []*domain.PortfolioSnapshot, err error) {
	defer timeQuery("get_portfolio_history", time.Now())(&err)

	query := `
		SELECT snapshot_idx, timestamp, price,
			total_value_to_x, total_value_to_y,
			position_name, position_kind,
			value_x, value_y, fees_x, fees_y, il_to_x, il_to_y, tx_costs
		FROM portfolio_history
		WHERE run_id = ?
		ORDER BY snapshot_idx ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get portfolio history by run id: %w", err)
	}
	defer rows.Close()

	var current *domain.PortfolioSnapshot
	currentIdx := uint64(0)

	for rows.Next() {
		var (
			idx       uint64
			timestamp int64
			price     float64
			totalX    float64
			totalY    float64
			ps        domain.PositionSnapshot
		)
		err := rows.Scan(
			&idx, &timestamp, &price, &totalX, &totalY,
			&ps.Name, &ps.Kind,
			&ps.ValueX, &ps.ValueY, &ps.FeesX, &ps.FeesY, &ps.ILToX, &ps.ILToY, &ps.TxCosts,
		)
		if err != nil {
			return nil, fmt.Errorf("scan portfolio history row: %w", err)
		}

		if current == nil || idx != currentIdx {
			current = &domain.PortfolioSnapshot{
				RunID:         runID,
				Timestamp:     timestamp,
				Price:         price,
				TotalValueToX: totalX,
				TotalValueToY: totalY,
			}
			currentIdx = idx
			result = append(result, current)
		}
		if ps.Name != "" {
			current.Positions = append(current.Positions, ps)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio history: %w", err)
	}
	return result, nil
}

// nextSnapshotIdx returns the next free snapshot index for a run so repeated
// InsertBulk calls keep appending.
func (s *PortfolioHistoryStore) nextSnapshotIdx(ctx context.Context, runID string) (uint64, error) {
	query := `
		SELECT count(DISTINCT snapshot_idx)
		FROM portfolio_history
		WHERE run_id = ?
	`
	row := s.conn.QueryRow(ctx, query, runID)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count existing snapshots: %w", err)
	}
	return count, nil
}
