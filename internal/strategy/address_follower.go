package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/position"
)

// FollowAddressConfig parameterizes FollowAddressStrategy.
type FollowAddressConfig struct {
	// Owner is the address whose mints and burns are mirrored.
	Owner string

	FeeTier domain.Fee
	TxCost  float64

	// Tolerance loosens the optimality check for mirrored deposits; on-chain
	// mint amounts are optimal for their interval only up to rounding.
	Tolerance float64
}

// FollowAddressStrategy mirrors the liquidity management of one on-chain
// address: each of the owner's mints opens or tops up an interval position
// with the event's amounts, each burn removes the event's liquidity, and
// swap events accrue fees to every open interval.
type FollowAddressStrategy struct {
	cfg FollowAddressConfig
}

// NewFollowAddressStrategy creates a strategy mirroring the given owner.
func NewFollowAddressStrategy(cfg FollowAddressConfig) *FollowAddressStrategy {
	return &FollowAddressStrategy{cfg: cfg}
}

// Name returns the strategy identifier including the followed address.
func (s *FollowAddressStrategy) Name() string {
	return fmt.Sprintf("follow_%s", s.cfg.Owner)
}

// Rebalance mirrors the owner's action carried by the event.
func (s *FollowAddressStrategy) Rebalance(_ context.Context, event *domain.PoolEvent, p *portfolio.Portfolio) (string, error) {
	switch event.Kind {
	case domain.EventSwap:
		for _, pos := range p.Positions() {
			iv, ok := pos.(*position.Interval)
			if !ok {
				continue
			}
			if err := iv.ChargeFees(event.PriceBefore, event.Price); err != nil {
				return "", err
			}
		}
		return "", nil

	case domain.EventMint:
		if event.Owner != s.cfg.Owner {
			return "", nil
		}
		return domain.ActionMint, s.mint(event, p)

	case domain.EventBurn:
		if event.Owner != s.cfg.Owner {
			return "", nil
		}
		return domain.ActionBurn, s.burn(event, p)
	}
	return "", nil
}

func (s *FollowAddressStrategy) mint(event *domain.PoolEvent, p *portfolio.Portfolio) error {
	name := intervalName(event.LowerPrice, event.UpperPrice)
	pos, err := p.Get(name)
	if errors.Is(err, portfolio.ErrNotFound) {
		iv, err := position.NewInterval(name, event.LowerPrice, event.UpperPrice, position.IntervalConfig{
			FeeTier:   s.cfg.FeeTier,
			TxCost:    s.cfg.TxCost,
			Tolerance: s.cfg.Tolerance,
		})
		if err != nil {
			return err
		}
		if err := p.Append(iv); err != nil {
			return err
		}
		pos = iv
	} else if err != nil {
		return err
	}

	iv, ok := pos.(*position.Interval)
	if !ok {
		return fmt.Errorf("position %q is not an interval", name)
	}
	return iv.Deposit(event.AmountX, event.AmountY, event.Price)
}

func (s *FollowAddressStrategy) burn(event *domain.PoolEvent, p *portfolio.Portfolio) error {
	name := intervalName(event.LowerPrice, event.UpperPrice)
	pos, err := p.Get(name)
	if errors.Is(err, portfolio.ErrNotFound) {
		// The owner minted this interval before the replay window opened
		return nil
	}
	if err != nil {
		return err
	}
	iv, ok := pos.(*position.Interval)
	if !ok {
		return fmt.Errorf("position %q is not an interval", name)
	}

	// Chain data can report slightly more liquidity than our mirrored
	// position carries; burn what we have.
	liq := event.Liquidity
	if liq > iv.Liquidity() {
		liq = iv.Liquidity()
	}
	if liq <= 0 {
		return nil
	}
	_, _, err = iv.Burn(liq, event.Price)
	return err
}

func intervalName(lower, upper float64) string {
	return fmt.Sprintf("follow_%g_%g", lower, upper)
}

var _ Strategy = (*FollowAddressStrategy)(nil)
