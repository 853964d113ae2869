package backtest

import (
	"context"
	"testing"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage/memory"
)

func TestSortEvents_CompositeKey(t *testing.T) {
	events := []*domain.PoolEvent{
		{Block: 2, TxHash: "a", LogIndex: 0},
		{Block: 1, TxHash: "b", LogIndex: 3},
		{Block: 1, TxHash: "a", LogIndex: 1},
		{Block: 1, TxHash: "a", LogIndex: 0},
	}
	SortEvents(events)

	want := []struct {
		block    int64
		txHash   string
		logIndex int
	}{
		{1, "a", 0},
		{1, "a", 1},
		{1, "b", 3},
		{2, "a", 0},
	}
	for i, w := range want {
		e := events[i]
		if e.Block != w.block || e.TxHash != w.txHash || e.LogIndex != w.logIndex {
			t.Errorf("position %d: got (%d, %s, %d), want (%d, %s, %d)",
				i, e.Block, e.TxHash, e.LogIndex, w.block, w.txHash, w.logIndex)
		}
	}
}

func TestRunner_ReplayOrderIndependentOfInsertion(t *testing.T) {
	ctx := context.Background()

	// Two stores populated in different orders must replay identically.
	events := []*domain.PoolEvent{
		{Pool: "p", Block: 3, TxHash: "c", LogIndex: 0, Timestamp: 3000, Kind: domain.EventSwap, Price: 15.3},
		{Pool: "p", Block: 1, TxHash: "a", LogIndex: 0, Timestamp: 1000, Kind: domain.EventSwap, Price: 15.1},
		{Pool: "p", Block: 2, TxHash: "b", LogIndex: 0, Timestamp: 2000, Kind: domain.EventSwap, Price: 15.2},
	}
	reversed := []*domain.PoolEvent{events[2], events[0], events[1]}

	var replays [][]int64
	for _, batch := range [][]*domain.PoolEvent{events, reversed} {
		store := memory.NewPoolEventStore()
		if err := store.InsertBulk(ctx, batch); err != nil {
			t.Fatalf("InsertBulk failed: %v", err)
		}

		stub := NewStubStrategy()
		engine := NewEngine(stub, portfolio.New())
		if err := NewRunner(store).RunAll(ctx, "p", engine); err != nil {
			t.Fatalf("RunAll failed: %v", err)
		}

		var blocks []int64
		for _, e := range stub.Events() {
			blocks = append(blocks, e.Block)
		}
		replays = append(replays, blocks)
	}

	if len(replays[0]) != 3 || len(replays[1]) != 3 {
		t.Fatalf("replay lengths: %d, %d", len(replays[0]), len(replays[1]))
	}
	for i := range replays[0] {
		if replays[0][i] != replays[1][i] {
			t.Errorf("replay diverged at %d: %v vs %v", i, replays[0], replays[1])
		}
		if replays[0][i] != int64(i+1) {
			t.Errorf("replay out of order: %v", replays[0])
		}
	}
}

func TestRunner_TimeRange(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPoolEventStore()

	events := []*domain.PoolEvent{
		{Pool: "p", Block: 1, TxHash: "a", LogIndex: 0, Timestamp: 1000, Price: 15},
		{Pool: "p", Block: 2, TxHash: "b", LogIndex: 0, Timestamp: 2000, Price: 15},
		{Pool: "p", Block: 3, TxHash: "c", LogIndex: 0, Timestamp: 3000, Price: 15},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	stub := NewStubStrategy()
	engine := NewEngine(stub, portfolio.New())
	if err := NewRunner(store).Run(ctx, "p", 1000, 2000, engine); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(stub.Events()) != 2 {
		t.Errorf("Expected 2 events in range, got %d", len(stub.Events()))
	}
}
