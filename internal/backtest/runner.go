package backtest

import (
	"context"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// EventSink processes events in deterministic order.
type EventSink interface {
	// OnEvent is called for each event in order.
	// Events are guaranteed to be ordered by (block, tx_hash, log_index).
	OnEvent(ctx context.Context, event *domain.PoolEvent) error
}

// Runner loads events from storage and replays them in deterministic order.
type Runner struct {
	eventStore storage.PoolEventStore
}

// NewRunner creates a new backtest runner.
func NewRunner(eventStore storage.PoolEventStore) *Runner {
	return &Runner{eventStore: eventStore}
}

// Run loads events for a pool within [from, to] and replays them through the
// sink. Events are ordered by (block, tx_hash, log_index) before replay.
func (r *Runner) Run(ctx context.Context, pool string, from, to int64, sink EventSink) error {
	events, err := r.eventStore.GetByTimeRange(ctx, pool, from, to)
	if err != nil {
		return err
	}
	return replay(ctx, events, sink)
}

// RunAll loads all events for a pool and replays them through the sink.
func (r *Runner) RunAll(ctx context.Context, pool string, sink EventSink) error {
	events, err := r.eventStore.GetByPool(ctx, pool)
	if err != nil {
		return err
	}
	return replay(ctx, events, sink)
}

func replay(ctx context.Context, events []*domain.PoolEvent, sink EventSink) error {
	SortEvents(events)
	for _, event := range events {
		if err := sink.OnEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
