package strategy

import (
	"context"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/position"
)

// HoldStrategy keeps the initial token amounts in a balance position and
// never trades. It is the benchmark every active strategy is measured
// against: any extra value must come from fees net of costs and divergence.
type HoldStrategy struct {
	InitialX  float64
	InitialY  float64
	XInterest float64
	YInterest float64

	funded bool
}

// NewHoldStrategy creates a hold benchmark with the given starting amounts
// and daily interest rates.
func NewHoldStrategy(initialX, initialY, xInterest, yInterest float64) *HoldStrategy {
	return &HoldStrategy{
		InitialX:  initialX,
		InitialY:  initialY,
		XInterest: xInterest,
		YInterest: yInterest,
	}
}

// Name returns the strategy identifier.
func (s *HoldStrategy) Name() string { return "hold" }

// Rebalance funds the vault on the first event and accrues interest daily
// afterwards.
func (s *HoldStrategy) Rebalance(_ context.Context, event *domain.PoolEvent, p *portfolio.Portfolio) (string, error) {
	if !s.funded {
		vault, err := position.NewBalance(VaultName, s.InitialX, s.InitialY, position.BalanceConfig{
			XInterest: s.XInterest,
			YInterest: s.YInterest,
		})
		if err != nil {
			return "", err
		}
		if err := p.Append(vault); err != nil {
			return "", err
		}
		s.funded = true
		return domain.ActionMint, nil
	}

	if pos, err := p.Get(VaultName); err == nil {
		if vault, ok := pos.(*position.Balance); ok {
			vault.AccrueInterest(event.Time())
		}
	}
	return "", nil
}

var _ Strategy = (*HoldStrategy)(nil)
