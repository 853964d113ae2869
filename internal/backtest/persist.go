package backtest

import (
	"context"
	"fmt"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// HistoryStores bundles the three history sinks a run writes to.
type HistoryStores struct {
	Portfolio storage.PortfolioHistoryStore
	Rebalance storage.RebalanceHistoryStore
	Interval  storage.IntervalHistoryStore
}

// SaveHistories stamps the run ID onto every recorded row and writes the
// engine's three histories to storage. Nil stores are skipped, so a caller
// can persist only the histories it cares about.
func SaveHistories(ctx context.Context, runID string, e *Engine, stores HistoryStores) error {
	if stores.Portfolio != nil {
		snaps := e.PortfolioHistory().Snapshots()
		rows := make([]*domain.PortfolioSnapshot, 0, len(snaps))
		for i := range snaps {
			row := snaps[i]
			row.RunID = runID
			rows = append(rows, &row)
		}
		if err := stores.Portfolio.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("persist portfolio history: %w", err)
		}
	}

	if stores.Rebalance != nil {
		recs := e.RebalanceHistory().Records()
		rows := make([]*domain.RebalanceRecord, 0, len(recs))
		for i := range recs {
			row := recs[i]
			row.RunID = runID
			rows = append(rows, &row)
		}
		if err := stores.Rebalance.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("persist rebalance history: %w", err)
		}
	}

	if stores.Interval != nil {
		snaps := e.IntervalHistory().Snapshots()
		rows := make([]*domain.IntervalSnapshot, 0, len(snaps))
		for i := range snaps {
			row := snaps[i]
			row.RunID = runID
			rows = append(rows, &row)
		}
		if err := stores.Interval.InsertBulk(ctx, rows); err != nil {
			return fmt.Errorf("persist interval history: %w", err)
		}
	}

	return nil
}
