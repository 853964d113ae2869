package backtest

import (
	"context"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
)

// StubStrategy is a no-op strategy for testing.
// It collects events for verification without touching the portfolio.
type StubStrategy struct {
	events []*domain.PoolEvent
}

// NewStubStrategy creates a new stub strategy.
func NewStubStrategy() *StubStrategy {
	return &StubStrategy{
		events: make([]*domain.PoolEvent, 0),
	}
}

// Rebalance collects events for verification. Always returns no action.
func (s *StubStrategy) Rebalance(_ context.Context, event *domain.PoolEvent, _ *portfolio.Portfolio) (string, error) {
	s.events = append(s.events, event)
	return "", nil
}

// Name returns the strategy identifier.
func (s *StubStrategy) Name() string {
	return "stub"
}

// Events returns collected events for test verification.
func (s *StubStrategy) Events() []*domain.PoolEvent {
	return s.events
}

// Ensure StubStrategy implements Strategy
var _ Strategy = (*StubStrategy)(nil)
