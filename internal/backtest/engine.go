// Package backtest replays pool events through a strategy and records the
// resulting portfolio trajectory.
package backtest

import (
	"context"
	"fmt"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/history"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/observability"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
)

// Strategy decides portfolio changes in response to pool events.
type Strategy interface {
	// Rebalance is called for each event in order. It mutates the portfolio
	// and returns the action it took, or "" when it did nothing.
	// Events are guaranteed to be ordered by (block, tx_hash, log_index).
	Rebalance(ctx context.Context, event *domain.PoolEvent, p *portfolio.Portfolio) (action string, err error)

	// Name returns the strategy identifier.
	Name() string
}

// Engine orchestrates strategy execution during a backtest.
// Implements EventSink. The engine is single-threaded: one engine drives one
// portfolio through one event stream. Parallel experiments run separate
// engines over separate portfolios.
type Engine struct {
	strategy  Strategy
	portfolio *portfolio.Portfolio

	portfolioHistory *history.PortfolioHistory
	rebalanceHistory *history.RebalanceHistory
	intervalHistory  *history.IntervalHistory

	eventCount int
}

// NewEngine creates a backtest engine driving the given portfolio.
func NewEngine(strategy Strategy, p *portfolio.Portfolio) *Engine {
	return &Engine{
		strategy:         strategy,
		portfolio:        p,
		portfolioHistory: history.NewPortfolioHistory(),
		rebalanceHistory: history.NewRebalanceHistory(),
		intervalHistory:  history.NewIntervalHistory(),
	}
}

// OnEvent processes one event: the strategy rebalances, then the portfolio
// state after the event is recorded. Implements EventSink.
func (e *Engine) OnEvent(ctx context.Context, event *domain.PoolEvent) error {
	idx := e.eventCount
	e.eventCount++

	action, err := e.strategy.Rebalance(ctx, event, e.portfolio)
	if err != nil {
		return fmt.Errorf("strategy %q: event %d (timestamp %d): %w",
			e.strategy.Name(), idx, event.Timestamp, err)
	}
	e.rebalanceHistory.Add(event.Timestamp, action)
	if action != "" {
		observability.RecordRebalanceAction(action)
	}

	snap, err := e.portfolio.Snapshot(event.Timestamp, event.Price)
	if err != nil {
		return fmt.Errorf("snapshot: event %d (timestamp %d): %w", idx, event.Timestamp, err)
	}
	e.portfolioHistory.Add(snap)
	e.intervalHistory.Observe(event.Timestamp, e.portfolio)

	return nil
}

// EventCount returns the number of events processed so far.
func (e *Engine) EventCount() int { return e.eventCount }

// Portfolio returns the portfolio the engine drives.
func (e *Engine) Portfolio() *portfolio.Portfolio { return e.portfolio }

// PortfolioHistory returns the per-event portfolio snapshots.
func (e *Engine) PortfolioHistory() *history.PortfolioHistory { return e.portfolioHistory }

// RebalanceHistory returns the recorded strategy actions.
func (e *Engine) RebalanceHistory() *history.RebalanceHistory { return e.rebalanceHistory }

// IntervalHistory returns the per-event interval position snapshots.
func (e *Engine) IntervalHistory() *history.IntervalHistory { return e.intervalHistory }

// Ensure Engine implements EventSink
var _ EventSink = (*Engine)(nil)
