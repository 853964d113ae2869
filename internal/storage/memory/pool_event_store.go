package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// PoolEventStore is an in-memory implementation of storage.PoolEventStore.
type PoolEventStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PoolEvent // keyed by composite key
}

// NewPoolEventStore creates a new in-memory pool event store.
func NewPoolEventStore() *PoolEventStore {
	return &PoolEventStore{
		data: make(map[string]*domain.PoolEvent),
	}
}

// eventKey generates a unique key for a pool event.
func eventKey(pool, txHash string, logIndex int) string {
	return fmt.Sprintf("%s|%s|%d", pool, txHash, logIndex)
}

// Insert adds a new event. Returns ErrDuplicateKey if exists.
func (s *PoolEventStore) Insert(_ context.Context, e *domain.PoolEvent) error {
	if e == nil || e.Pool == "" {
		return storage.ErrInvalidInput
	}

	key := eventKey(e.Pool, e.TxHash, e.LogIndex)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *PoolEventStore) InsertBulk(_ context.Context, events []*domain.PoolEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(events))

	for _, e := range events {
		if e == nil || e.Pool == "" {
			return storage.ErrInvalidInput
		}
		key := eventKey(e.Pool, e.TxHash, e.LogIndex)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, e := range events {
		key := eventKey(e.Pool, e.TxHash, e.LogIndex)
		copy := *e
		s.data[key] = &copy
	}

	return nil
}

// GetByPool retrieves all events for a pool, ordered by (block, tx_hash, log_index) ASC.
func (s *PoolEventStore) GetByPool(_ context.Context, pool string) ([]*domain.PoolEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolEvent
	for _, e := range s.data {
		if e.Pool == pool {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

// GetByTimeRange retrieves events for a pool within [start, end] (inclusive).
func (s *PoolEventStore) GetByTimeRange(_ context.Context, pool string, start, end int64) ([]*domain.PoolEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PoolEvent
	for _, e := range s.data {
		if e.Pool == pool && e.Timestamp >= start && e.Timestamp <= end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortEvents(result)
	return result, nil
}

func sortEvents(events []*domain.PoolEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Block != events[j].Block {
			return events[i].Block < events[j].Block
		}
		if events[i].TxHash != events[j].TxHash {
			return events[i].TxHash < events[j].TxHash
		}
		return events[i].LogIndex < events[j].LogIndex
	})
}

var _ storage.PoolEventStore = (*PoolEventStore)(nil)
