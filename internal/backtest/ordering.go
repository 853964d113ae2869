package backtest

import (
	"sort"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
)

// SortEvents orders events by (block ASC, tx_hash ASC, log_index ASC, kind ASC).
// This provides deterministic ordering based on chain order.
// Kind is used as tie-breaker when block, tx_hash, and log_index are equal.
func SortEvents(events []*domain.PoolEvent) {
	sort.Slice(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (block ASC, tx_hash ASC, log_index ASC, kind ASC)
func compareEvents(a, b *domain.PoolEvent) int {
	if a.Block != b.Block {
		if a.Block < b.Block {
			return -1
		}
		return 1
	}
	if a.TxHash != b.TxHash {
		if a.TxHash < b.TxHash {
			return -1
		}
		return 1
	}
	if a.LogIndex != b.LogIndex {
		if a.LogIndex < b.LogIndex {
			return -1
		}
		return 1
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	return 0
}
