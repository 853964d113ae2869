package ingestion

import (
	"context"
	"errors"
	"log"
	"slices"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/backtest"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/observability"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// Runner drains a feed into a PoolEventStore with deterministic ordering.
type Runner struct {
	feed          *WSFeed
	eventStore    storage.PoolEventStore
	blockLag      int64         // Number of blocks to buffer for ordering
	flushInterval time.Duration // Interval for periodic buffer flush
	logger        *log.Logger

	// Block-based buffer for deterministic ordering.
	// Events are grouped by block and written when the block is finalized.
	buffer       map[int64][]*domain.PoolEvent
	highestBlock int64
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Feed       *WSFeed
	EventStore storage.PoolEventStore
	// BlockLag is how many blocks to wait before writing a block's events.
	// Default: 5.
	BlockLag int64
	// FlushInterval forces a periodic flush of finalized blocks. Default: 5s.
	FlushInterval time.Duration
	Logger        *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	blockLag := opts.BlockLag
	if blockLag == 0 {
		blockLag = 5
	}

	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		feed:          opts.Feed,
		eventStore:    opts.EventStore,
		blockLag:      blockLag,
		flushInterval: flushInterval,
		logger:        logger,
		buffer:        make(map[int64][]*domain.PoolEvent),
	}
}

// Run drains the feed until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Println("Starting ingestion runner...")

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	r.logger.Printf("Runner started, block lag: %d, flush interval: %v", r.blockLag, r.flushInterval)

	for {
		select {
		case <-ctx.Done():
			// Flush all remaining events before shutdown
			r.flushAllBlocks(ctx)
			r.logger.Println("Runner stopping...")
			return ctx.Err()

		case event, ok := <-r.feed.Events():
			if !ok {
				r.flushAllBlocks(ctx)
				r.logger.Println("Event feed closed")
				return errors.New("event feed closed")
			}
			r.bufferEvent(ctx, event)

		case <-flushTicker.C:
			// Periodic flush writes finalized blocks even if no new
			// blocks arrive. flushAllBlocks is only used on shutdown
			// when ordering no longer matters.
			r.processFinalizedBlocks(ctx)
		}
	}
}

// bufferEvent adds the event to the block buffer and processes finalized blocks.
func (r *Runner) bufferEvent(ctx context.Context, event *domain.PoolEvent) {
	observability.RecordEventReceived(string(event.Kind))

	block := event.Block
	r.buffer[block] = append(r.buffer[block], event)

	if block > r.highestBlock {
		r.highestBlock = block
		observability.UpdateHighestBlock(block)
		r.processFinalizedBlocks(ctx)
	} else if block <= r.highestBlock-r.blockLag {
		// Late event for an already-finalized block: write immediately
		r.processBlock(ctx, block)
	}
}

// processFinalizedBlocks writes all blocks behind the lag window, in order.
func (r *Runner) processFinalizedBlocks(ctx context.Context) {
	finalized := r.highestBlock - r.blockLag
	if finalized < 0 {
		return
	}

	var blocks []int64
	for block := range r.buffer {
		if block <= finalized {
			blocks = append(blocks, block)
		}
	}

	slices.Sort(blocks)
	for _, block := range blocks {
		r.processBlock(ctx, block)
	}
	observability.UpdateBufferSize(len(r.buffer))
}

// processBlock writes all events of a single block in deterministic order.
func (r *Runner) processBlock(ctx context.Context, block int64) {
	events, ok := r.buffer[block]
	if !ok || len(events) == 0 {
		return
	}

	backtest.SortEvents(events)
	stored := 0
	for _, event := range events {
		if err := r.eventStore.Insert(ctx, event); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				// Duplicate is expected after reconnects, not an error
				continue
			}
			observability.RecordEventError("store")
			r.logger.Printf("Error storing pool event: %v", err)
			continue
		}
		stored++
	}
	delete(r.buffer, block)

	if stored > 0 {
		observability.RecordEventsStored(stored)
		observability.DefaultMetrics.LastSuccessfulIngestion.Set(float64(time.Now().Unix()))
	}
}

// flushAllBlocks writes all remaining buffered events on shutdown.
func (r *Runner) flushAllBlocks(ctx context.Context) {
	var blocks []int64
	for block := range r.buffer {
		blocks = append(blocks, block)
	}

	slices.Sort(blocks)
	for _, block := range blocks {
		r.processBlock(ctx, block)
	}
	observability.UpdateBufferSize(len(r.buffer))
}

