// Package reporting computes run statistics from recorded histories and
// renders them as CSV or Markdown.
package reporting

import (
	"errors"
	"math"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
)

// ErrEmptyHistory is returned when stats are requested for a run that
// recorded no snapshots.
var ErrEmptyHistory = errors.New("empty portfolio history")

// StatsRow is the per-snapshot statistics derived from one portfolio
// snapshot. Hold columns value the portfolio's initial token amounts at the
// row's price, the benchmark an LP strategy has to beat.
type StatsRow struct {
	Timestamp int64
	Price     float64

	TotalValueX float64 // sum of position X amounts
	TotalValueY float64 // sum of position Y amounts

	TotalValueToX float64 // portfolio value in X, net of tx costs
	TotalValueToY float64 // portfolio value in Y, net of tx costs

	TotalFeesX   float64
	TotalFeesY   float64
	TotalFeesToX float64
	TotalFeesToY float64

	TotalILToX float64
	TotalILToY float64

	HoldToX float64
	HoldToY float64

	PortfolioAPYX float64
	PortfolioAPYY float64
	HoldAPYX      float64
	HoldAPYY      float64

	// GAPY measures how much the portfolio outgrew simple holding,
	// annualized. Zero until one day has elapsed.
	GAPY float64
}

// Summary condenses a run into its final statistics.
type Summary struct {
	RunID      string
	Strategy   string
	Pool       string
	Snapshots  int
	Rebalances int
	Days       float64

	Final StatsRow
}

// BuildStats derives the per-snapshot statistics series from a portfolio
// history. Snapshots must be in replay order.
func BuildStats(snapshots []domain.PortfolioSnapshot) ([]StatsRow, error) {
	if len(snapshots) == 0 {
		return nil, ErrEmptyHistory
	}

	first := snapshots[0]
	var firstX, firstY float64
	for _, ps := range first.Positions {
		firstX += ps.ValueX
		firstY += ps.ValueY
	}
	firstTime := first.Timestamp

	rows := make([]StatsRow, 0, len(snapshots))
	for _, snap := range snapshots {
		row := StatsRow{
			Timestamp:     snap.Timestamp,
			Price:         snap.Price,
			TotalValueToX: snap.TotalValueToX,
			TotalValueToY: snap.TotalValueToY,
		}
		for _, ps := range snap.Positions {
			row.TotalValueX += ps.ValueX
			row.TotalValueY += ps.ValueY
			row.TotalFeesX += ps.FeesX
			row.TotalFeesY += ps.FeesY
			row.TotalILToX += ps.ILToX
			row.TotalILToY += ps.ILToY
		}
		row.TotalFeesToX = row.TotalFeesX + row.TotalFeesY/snap.Price
		row.TotalFeesToY = row.TotalFeesX*snap.Price + row.TotalFeesY
		row.HoldToX = firstX + firstY/snap.Price
		row.HoldToY = firstX*snap.Price + firstY

		days := daysBetween(firstTime, snap.Timestamp)
		if len(rows) > 0 {
			base := rows[0]
			row.PortfolioAPYX = apy(row.TotalValueToX/base.TotalValueToX, days)
			row.PortfolioAPYY = apy(row.TotalValueToY/base.TotalValueToY, days)
			row.HoldAPYX = apy(row.HoldToX/base.HoldToX, days)
			row.HoldAPYY = apy(row.HoldToY/base.HoldToY, days)
			row.GAPY = apy(row.TotalValueToX/row.HoldToX, days)
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// BuildSummary condenses a run's histories into final statistics.
func BuildSummary(runID, strategyName, pool string, snapshots []domain.PortfolioSnapshot, rebalances []domain.RebalanceRecord) (*Summary, error) {
	rows, err := BuildStats(snapshots)
	if err != nil {
		return nil, err
	}
	last := rows[len(rows)-1]
	return &Summary{
		RunID:      runID,
		Strategy:   strategyName,
		Pool:       pool,
		Snapshots:  len(rows),
		Rebalances: len(rebalances),
		Days:       daysBetween(rows[0].Timestamp, last.Timestamp),
		Final:      last,
	}, nil
}

// daysBetween converts a millisecond timestamp delta into fractional days.
func daysBetween(from, to int64) float64 {
	return float64(to-from) / float64(24*time.Hour/time.Millisecond)
}

// apy annualizes a growth factor over the given number of days, as a
// percentage. Returns 0 before one full day has elapsed, matching the
// convention that sub-day growth does not extrapolate.
func apy(performance, days float64) float64 {
	if days < 1 || performance <= 0 {
		return 0
	}
	return 100 * (math.Pow(performance, 365/days) - 1)
}
