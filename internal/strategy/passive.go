package strategy

import (
	"context"
	"fmt"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/position"
)

// PassiveConfig parameterizes PassiveStrategy.
type PassiveConfig struct {
	LowerPrice float64
	UpperPrice float64
	InitialX   float64
	InitialY   float64

	FeeTier domain.Fee
	SwapFee float64
	TxCost  float64

	XInterest float64
	YInterest float64
}

// PassiveStrategy mints one full-funds interval position on the first event
// and then only accrues swap fees. The classic passive Uniswap V3 LP.
type PassiveStrategy struct {
	cfg    PassiveConfig
	minted bool

	// Handles to the positions created by mint, kept so later events
	// do not re-derive them from the portfolio by name.
	vault    *position.Balance
	interval *position.Interval
}

// NewPassiveStrategy creates a passive strategy for [lower, upper].
func NewPassiveStrategy(cfg PassiveConfig) *PassiveStrategy {
	return &PassiveStrategy{cfg: cfg}
}

// Name returns the strategy identifier including the interval bounds.
func (s *PassiveStrategy) Name() string {
	return fmt.Sprintf("passive_%g_%g", s.cfg.LowerPrice, s.cfg.UpperPrice)
}

// Rebalance mints the position on the first event; on every later swap
// event it charges the position's fee share and accrues vault interest.
func (s *PassiveStrategy) Rebalance(_ context.Context, event *domain.PoolEvent, p *portfolio.Portfolio) (string, error) {
	if !s.minted {
		if err := s.mint(event, p); err != nil {
			return "", err
		}
		s.minted = true
		return domain.ActionMint, nil
	}

	if event.Kind == domain.EventSwap {
		if err := s.interval.ChargeFees(event.PriceBefore, event.Price); err != nil {
			return "", err
		}
	}
	s.vault.AccrueInterest(event.Time())
	return "", nil
}

// mint swaps the starting funds to the optimal proportion for the interval
// at the event price and deposits everything. The vault keeps whatever the
// tolerance-sized leftover is and collects interest afterwards.
func (s *PassiveStrategy) mint(event *domain.PoolEvent, p *portfolio.Portfolio) error {
	vault, err := position.NewBalance(VaultName, s.cfg.InitialX, s.cfg.InitialY, position.BalanceConfig{
		SwapFee:   s.cfg.SwapFee,
		TxCost:    s.cfg.TxCost,
		XInterest: s.cfg.XInterest,
		YInterest: s.cfg.YInterest,
	})
	if err != nil {
		return err
	}

	iv, err := position.NewInterval(IntervalName, s.cfg.LowerPrice, s.cfg.UpperPrice, position.IntervalConfig{
		FeeTier: s.cfg.FeeTier,
		TxCost:  s.cfg.TxCost,
	})
	if err != nil {
		return err
	}

	price := event.Price
	dx, dy, err := iv.Aligner().SwapToOptimal(vault.X(), vault.Y(), price, s.cfg.SwapFee)
	if err != nil {
		return err
	}
	if dx > 0 {
		if _, err := vault.SwapXToY(dx, price); err != nil {
			return err
		}
	} else if dy > 0 {
		if _, err := vault.SwapYToX(dy, price); err != nil {
			return err
		}
	}

	x, y, err := vault.WithdrawFraction(1)
	if err != nil {
		return err
	}
	if err := iv.Deposit(x, y, price); err != nil {
		return err
	}

	if err := p.Append(vault); err != nil {
		return err
	}
	if err := p.Append(iv); err != nil {
		return err
	}
	s.vault = vault
	s.interval = iv
	return nil
}

var _ Strategy = (*PassiveStrategy)(nil)
