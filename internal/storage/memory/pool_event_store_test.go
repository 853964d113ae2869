package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

func TestPoolEventStore_InsertAndGet(t *testing.T) {
	store := NewPoolEventStore()
	ctx := context.Background()

	event := &domain.PoolEvent{
		ID:        1,
		Pool:      "WBTC_WETH_3000",
		Block:     17000000,
		TxHash:    "0xabc",
		LogIndex:  0,
		Timestamp: 1680000000,
		Kind:      domain.EventSwap,
		Price:     15.5,
	}

	err := store.Insert(ctx, event)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByPool(ctx, "WBTC_WETH_3000")
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}

	if len(result) != 1 {
		t.Errorf("Expected 1 event, got %d", len(result))
	}

	if result[0].Price != 15.5 {
		t.Errorf("Price mismatch: got %f, want %f", result[0].Price, 15.5)
	}
}

func TestPoolEventStore_DuplicateKey(t *testing.T) {
	store := NewPoolEventStore()
	ctx := context.Background()

	event := &domain.PoolEvent{
		Pool:      "WBTC_WETH_3000",
		TxHash:    "0xabc",
		LogIndex:  0,
		Timestamp: 1000,
	}

	if err := store.Insert(ctx, event); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, event)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPoolEventStore_InsertBulkAtomicity(t *testing.T) {
	store := NewPoolEventStore()
	ctx := context.Background()

	events := []*domain.PoolEvent{
		{Pool: "p1", TxHash: "t1", LogIndex: 0, Block: 1, Timestamp: 1000},
		{Pool: "p1", TxHash: "t1", LogIndex: 1, Block: 1, Timestamp: 1000},
		{Pool: "p1", TxHash: "t1", LogIndex: 0, Block: 1, Timestamp: 1000}, // intra-batch dup
	}

	err := store.InsertBulk(ctx, events)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	// Nothing from the failed batch was inserted.
	result, err := store.GetByPool(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected 0 events after failed batch, got %d", len(result))
	}
}

func TestPoolEventStore_Ordering(t *testing.T) {
	store := NewPoolEventStore()
	ctx := context.Background()

	events := []*domain.PoolEvent{
		{Pool: "p1", Block: 200, TxHash: "t1", LogIndex: 0, Timestamp: 2000},
		{Pool: "p1", Block: 100, TxHash: "t2", LogIndex: 1, Timestamp: 1000},
		{Pool: "p1", Block: 100, TxHash: "t2", LogIndex: 0, Timestamp: 1000},
		{Pool: "p1", Block: 100, TxHash: "t1", LogIndex: 5, Timestamp: 1000},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByPool(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByPool failed: %v", err)
	}

	wantOrder := []struct {
		block    int64
		txHash   string
		logIndex int
	}{
		{100, "t1", 5},
		{100, "t2", 0},
		{100, "t2", 1},
		{200, "t1", 0},
	}
	for i, want := range wantOrder {
		got := result[i]
		if got.Block != want.block || got.TxHash != want.txHash || got.LogIndex != want.logIndex {
			t.Errorf("position %d: got (%d, %s, %d), want (%d, %s, %d)",
				i, got.Block, got.TxHash, got.LogIndex, want.block, want.txHash, want.logIndex)
		}
	}
}

func TestPoolEventStore_GetByTimeRange(t *testing.T) {
	store := NewPoolEventStore()
	ctx := context.Background()

	events := []*domain.PoolEvent{
		{Pool: "p1", TxHash: "t1", LogIndex: 0, Block: 1, Timestamp: 1000},
		{Pool: "p1", TxHash: "t2", LogIndex: 0, Block: 2, Timestamp: 2000},
		{Pool: "p1", TxHash: "t3", LogIndex: 0, Block: 3, Timestamp: 3000},
		{Pool: "p2", TxHash: "t4", LogIndex: 0, Block: 2, Timestamp: 2000},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, "p1", 1000, 2000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 events, got %d", len(result))
	}
}

func TestPoolEventStore_InvalidInput(t *testing.T) {
	store := NewPoolEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.PoolEvent{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty pool, got %v", err)
	}
}
