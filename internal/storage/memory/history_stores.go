package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/storage"
)

// PortfolioHistoryStore is an in-memory implementation of
// storage.PortfolioHistoryStore.
type PortfolioHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PortfolioSnapshot // keyed by run ID
}

// NewPortfolioHistoryStore creates a new in-memory portfolio history store.
func NewPortfolioHistoryStore() *PortfolioHistoryStore {
	return &PortfolioHistoryStore{
		data: make(map[string][]*domain.PortfolioSnapshot),
	}
}

// InsertBulk adds multiple snapshots. Every snapshot must carry a run ID.
func (s *PortfolioHistoryStore) InsertBulk(_ context.Context, snapshots []*domain.PortfolioSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		copy := *snap
		copy.Positions = append([]domain.PositionSnapshot(nil), snap.Positions...)
		s.data[snap.RunID] = append(s.data[snap.RunID], &copy)
	}
	return nil
}

// GetByRunID retrieves all snapshots for a run, ordered by timestamp ASC.
func (s *PortfolioHistoryStore) GetByRunID(_ context.Context, runID string) ([]*domain.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PortfolioSnapshot
	for _, snap := range s.data[runID] {
		copy := *snap
		copy.Positions = append([]domain.PositionSnapshot(nil), snap.Positions...)
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

var _ storage.PortfolioHistoryStore = (*PortfolioHistoryStore)(nil)

// RebalanceHistoryStore is an in-memory implementation of
// storage.RebalanceHistoryStore.
type RebalanceHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.RebalanceRecord
}

// NewRebalanceHistoryStore creates a new in-memory rebalance history store.
func NewRebalanceHistoryStore() *RebalanceHistoryStore {
	return &RebalanceHistoryStore{
		data: make(map[string][]*domain.RebalanceRecord),
	}
}

// InsertBulk adds multiple records. Every record must carry a run ID.
func (s *RebalanceHistoryStore) InsertBulk(_ context.Context, records []*domain.RebalanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if rec == nil || rec.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		copy := *rec
		s.data[rec.RunID] = append(s.data[rec.RunID], &copy)
	}
	return nil
}

// GetByRunID retrieves all records for a run, ordered by timestamp ASC.
func (s *RebalanceHistoryStore) GetByRunID(_ context.Context, runID string) ([]*domain.RebalanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RebalanceRecord
	for _, rec := range s.data[runID] {
		copy := *rec
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

var _ storage.RebalanceHistoryStore = (*RebalanceHistoryStore)(nil)

// IntervalHistoryStore is an in-memory implementation of
// storage.IntervalHistoryStore.
type IntervalHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.IntervalSnapshot
}

// NewIntervalHistoryStore creates a new in-memory interval history store.
func NewIntervalHistoryStore() *IntervalHistoryStore {
	return &IntervalHistoryStore{
		data: make(map[string][]*domain.IntervalSnapshot),
	}
}

// InsertBulk adds multiple snapshots. Every snapshot must carry a run ID.
func (s *IntervalHistoryStore) InsertBulk(_ context.Context, snapshots []*domain.IntervalSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snapshots {
		copy := *snap
		s.data[snap.RunID] = append(s.data[snap.RunID], &copy)
	}
	return nil
}

// GetByRunID retrieves all snapshots for a run, ordered by timestamp ASC.
func (s *IntervalHistoryStore) GetByRunID(_ context.Context, runID string) ([]*domain.IntervalSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IntervalSnapshot
	for _, snap := range s.data[runID] {
		copy := *snap
		result = append(result, &copy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

var _ storage.IntervalHistoryStore = (*IntervalHistoryStore)(nil)
