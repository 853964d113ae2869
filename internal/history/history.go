// Package history collects per-event records produced during a backtest run.
package history

import (
	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/position"
)

// PortfolioHistory accumulates one portfolio snapshot per processed event.
type PortfolioHistory struct {
	snapshots []domain.PortfolioSnapshot
}

// NewPortfolioHistory creates an empty portfolio history.
func NewPortfolioHistory() *PortfolioHistory {
	return &PortfolioHistory{}
}

// Add appends a snapshot.
func (h *PortfolioHistory) Add(snap domain.PortfolioSnapshot) {
	h.snapshots = append(h.snapshots, snap)
}

// Len returns the number of recorded snapshots.
func (h *PortfolioHistory) Len() int { return len(h.snapshots) }

// Snapshots returns the recorded snapshots in insertion order. The returned
// slice is shared; callers must not modify it.
func (h *PortfolioHistory) Snapshots() []domain.PortfolioSnapshot {
	return h.snapshots
}

// Last returns the most recent snapshot and whether one exists.
func (h *PortfolioHistory) Last() (domain.PortfolioSnapshot, bool) {
	if len(h.snapshots) == 0 {
		return domain.PortfolioSnapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// RebalanceHistory records the strategy actions that changed the portfolio.
// Events where the strategy did nothing are not recorded.
type RebalanceHistory struct {
	records []domain.RebalanceRecord
}

// NewRebalanceHistory creates an empty rebalance history.
func NewRebalanceHistory() *RebalanceHistory {
	return &RebalanceHistory{}
}

// Add records an action at the given timestamp. Empty actions are dropped.
func (h *RebalanceHistory) Add(timestamp int64, action string) {
	if action == "" {
		return
	}
	h.records = append(h.records, domain.RebalanceRecord{Timestamp: timestamp, Action: action})
}

// Len returns the number of recorded actions.
func (h *RebalanceHistory) Len() int { return len(h.records) }

// Records returns the recorded actions in insertion order. The returned
// slice is shared; callers must not modify it.
func (h *RebalanceHistory) Records() []domain.RebalanceRecord {
	return h.records
}

// IntervalHistory tracks the bounds, liquidity, and uncollected fees of
// every interval position over time.
type IntervalHistory struct {
	snapshots []domain.IntervalSnapshot
}

// NewIntervalHistory creates an empty interval history.
func NewIntervalHistory() *IntervalHistory {
	return &IntervalHistory{}
}

// Add appends a snapshot.
func (h *IntervalHistory) Add(snap domain.IntervalSnapshot) {
	h.snapshots = append(h.snapshots, snap)
}

// Observe records the state of every interval position in the portfolio at
// the given timestamp.
func (h *IntervalHistory) Observe(timestamp int64, p *portfolio.Portfolio) {
	for _, pos := range p.Positions() {
		iv, ok := pos.(*position.Interval)
		if !ok {
			continue
		}
		feeX, feeY := iv.Fees()
		h.Add(domain.IntervalSnapshot{
			Timestamp:  timestamp,
			Name:       iv.Name(),
			LowerPrice: iv.LowerPrice(),
			UpperPrice: iv.UpperPrice(),
			Liquidity:  iv.Liquidity(),
			FeesX:      feeX,
			FeesY:      feeY,
		})
	}
}

// Len returns the number of recorded snapshots.
func (h *IntervalHistory) Len() int { return len(h.snapshots) }

// Snapshots returns the recorded snapshots in insertion order. The returned
// slice is shared; callers must not modify it.
func (h *IntervalHistory) Snapshots() []domain.IntervalSnapshot {
	return h.snapshots
}
