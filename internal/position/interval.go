package position

import (
	"fmt"
	"math"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/uniswap"
)

// IntervalConfig parameterizes an Interval position.
type IntervalConfig struct {
	// FeeTier is the pool fee tier; its fraction of the traded notional that
	// crossed the interval accrues to the position as fees.
	FeeTier domain.Fee

	// TxCost is the fixed per-operation transaction cost in Y units, charged
	// on deposit and withdraw.
	TxCost float64

	// Tolerance overrides uniswap.DefaultTolerance when nonzero.
	Tolerance float64
}

// Interval is one concentrated-liquidity position on [lowerPrice, upperPrice].
// It is EMPTY while liquidity is zero and ACTIVE otherwise; an EMPTY position
// holds no token exposure and accrues no fees.
type Interval struct {
	name    string
	cfg     IntervalConfig
	aligner *uniswap.Aligner

	liquidity float64

	// Amounts deposited, tracked for impermanent-loss accounting.
	holdX float64
	holdY float64

	// Uncollected fees.
	feesX float64
	feesY float64

	// Monotonically non-decreasing fee counters.
	earnedX    float64
	earnedY    float64
	collectedX float64
	collectedY float64

	realizedLossToX float64
	realizedLossToY float64

	txCosts float64
}

var _ Position = (*Interval)(nil)

// NewInterval creates an interval position on [lowerPrice, upperPrice].
// Returns uniswap.ErrInvalidInterval for malformed bounds.
func NewInterval(name string, lowerPrice, upperPrice float64, cfg IntervalConfig) (*Interval, error) {
	aligner, err := uniswap.NewAligner(lowerPrice, upperPrice)
	if err != nil {
		return nil, err
	}
	if cfg.Tolerance != 0 {
		aligner.Tolerance = cfg.Tolerance
	}
	return &Interval{name: name, cfg: cfg, aligner: aligner}, nil
}

// Name returns the position name.
func (iv *Interval) Name() string { return iv.name }

// Kind returns domain.PositionKindInterval.
func (iv *Interval) Kind() string { return domain.PositionKindInterval }

// Aligner returns the position's aligner, used by strategies to pre-swap
// deposits into the optimal proportion.
func (iv *Interval) Aligner() *uniswap.Aligner { return iv.aligner }

// LowerPrice returns the interval's lower bound.
func (iv *Interval) LowerPrice() float64 { return iv.aligner.LowerPrice() }

// UpperPrice returns the interval's upper bound.
func (iv *Interval) UpperPrice() float64 { return iv.aligner.UpperPrice() }

// Liquidity returns the current liquidity magnitude.
func (iv *Interval) Liquidity() float64 { return iv.liquidity }

// Fees returns the uncollected fee amounts.
func (iv *Interval) Fees() (feeX, feeY float64) { return iv.feesX, iv.feesY }

// FeesEarned returns the cumulative fees ever accrued, collected or not.
func (iv *Interval) FeesEarned() (x, y float64) { return iv.earnedX, iv.earnedY }

// FeesCollected returns the cumulative fees returned by CollectFees.
func (iv *Interval) FeesCollected() (x, y float64) { return iv.collectedX, iv.collectedY }

// TxCosts returns the cumulative transaction costs in Y units.
func (iv *Interval) TxCosts() float64 { return iv.txCosts }

// Deposit mints liquidity from (x, y) at the given price. The amounts must
// divide evenly into the interval: callers pre-swap via the aligner, the
// position never swaps silently. Charges the fixed transaction cost.
func (iv *Interval) Deposit(x, y, price float64) error {
	ok, liqX, liqY, err := iv.aligner.CheckOptimal(x, y, price)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: x=%v y=%v price=%v interval=[%v, %v] liqX=%v liqY=%v",
			ErrNotOptimal, x, y, price, iv.LowerPrice(), iv.UpperPrice(), liqX, liqY)
	}

	liq, err := iv.aligner.LiquidityForAmounts(x, y, price)
	if err != nil {
		return err
	}

	iv.liquidity += liq
	iv.holdX += x
	iv.holdY += y
	iv.txCosts += iv.cfg.TxCost
	return nil
}

// Burn removes liq liquidity at the given price and returns the token
// amounts released. Realized impermanent loss is booked on the burned share.
// Charges the fixed transaction cost.
func (iv *Interval) Burn(liq, price float64) (x, y float64, err error) {
	if !validPrice(price) {
		return 0, 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	if liq <= 0 || math.IsNaN(liq) {
		return 0, 0, fmt.Errorf("%w: burn liquidity %v", ErrOutOfRange, liq)
	}
	if liq > iv.liquidity+iv.aligner.Tolerance {
		return 0, 0, fmt.Errorf("%w: burn %v of %v liquidity", ErrInsufficientFunds, liq, iv.liquidity)
	}

	ilX0, ilY0 := iv.impermanentLossBoth(price)

	x, y, err = iv.aligner.AmountsForLiquidity(liq, price)
	if err != nil {
		return 0, 0, err
	}

	share := liq / iv.liquidity
	iv.holdX -= iv.holdX * share
	iv.holdY -= iv.holdY * share
	iv.liquidity = clampZero(iv.liquidity - liq)

	ilX1, ilY1 := iv.impermanentLossBoth(price)
	iv.realizedLossToX += ilX0 - ilX1
	iv.realizedLossToY += ilY0 - ilY1

	iv.txCosts += iv.cfg.TxCost
	return x, y, nil
}

// Withdraw burns all liquidity, collects uncollected fees, and returns the
// combined token amounts. The position is EMPTY afterwards.
func (iv *Interval) Withdraw(price float64) (x, y float64, err error) {
	if iv.liquidity <= 0 {
		return 0, 0, fmt.Errorf("%w: withdraw from empty position", ErrInsufficientFunds)
	}
	x, y, err = iv.Burn(iv.liquidity, price)
	if err != nil {
		return 0, 0, err
	}
	feeX, feeY := iv.CollectFees()
	return x + feeX, y + feeY, nil
}

// ChargeFees accrues the position's share of swap fees for one swap event
// moving the pool price from priceBefore to priceAfter. The owed amount is
// the fee-tier fraction of the traded notional that fell inside the
// interval, which the virtual-amount delta measures exactly. Negative
// computed quantities from floating error are clamped to zero. No-op while
// EMPTY or while the traded range does not intersect the interval.
func (iv *Interval) ChargeFees(priceBefore, priceAfter float64) error {
	if !validPrice(priceBefore) {
		return fmt.Errorf("%w: price before %v", ErrOutOfRange, priceBefore)
	}
	if !validPrice(priceAfter) {
		return fmt.Errorf("%w: price after %v", ErrOutOfRange, priceAfter)
	}
	if iv.liquidity <= 0 {
		return nil
	}

	x0, y0, err := iv.aligner.AmountsForLiquidity(iv.liquidity, priceBefore)
	if err != nil {
		return err
	}
	x1, y1, err := iv.aligner.AmountsForLiquidity(iv.liquidity, priceAfter)
	if err != nil {
		return err
	}

	fraction := iv.cfg.FeeTier.Fraction()
	if y0 >= y1 {
		// Price moved down: traders sold X into the range.
		feeX := clampZero((x1 - x0) * fraction)
		iv.feesX += feeX
		iv.earnedX += feeX
	} else {
		// Price moved up: traders sold Y into the range.
		feeY := clampZero((y1 - y0) * fraction)
		iv.feesY += feeY
		iv.earnedY += feeY
	}
	return nil
}

// CollectFees zeroes the uncollected fees and returns them, incrementing the
// cumulative collected counters. Liquidity is unchanged.
func (iv *Interval) CollectFees() (feeX, feeY float64) {
	feeX, feeY = iv.feesX, iv.feesY
	iv.feesX, iv.feesY = 0, 0
	iv.collectedX += feeX
	iv.collectedY += feeY
	return feeX, feeY
}

// ImpermanentLoss returns the loss versus holding the deposited amounts,
// separately per token.
func (iv *Interval) ImpermanentLoss(price float64) (ilX, ilY float64, err error) {
	x, y, err := iv.Amounts(price)
	if err != nil {
		return 0, 0, err
	}
	return iv.holdX - x, iv.holdY - y, nil
}

// ImpermanentLossToX returns the loss versus holding, denominated in X.
func (iv *Interval) ImpermanentLossToX(price float64) (float64, error) {
	if !validPrice(price) {
		return 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	stake, err := iv.ValueInX(price)
	if err != nil {
		return 0, err
	}
	hold := iv.holdX + iv.holdY/price
	return hold - stake, nil
}

// ImpermanentLossToY returns the loss versus holding, denominated in Y.
func (iv *Interval) ImpermanentLossToY(price float64) (float64, error) {
	if !validPrice(price) {
		return 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	stake, err := iv.ValueInY(price)
	if err != nil {
		return 0, err
	}
	hold := iv.holdX*price + iv.holdY
	return hold - stake, nil
}

// RealizedLoss returns the impermanent loss realized by burns, in X and Y.
func (iv *Interval) RealizedLoss() (toX, toY float64) {
	return iv.realizedLossToX, iv.realizedLossToY
}

// Amounts returns the token amounts backing the current liquidity at the
// given price, excluding uncollected fees.
func (iv *Interval) Amounts(price float64) (x, y float64, err error) {
	return iv.aligner.AmountsForLiquidity(iv.liquidity, price)
}

// ValueInX returns the position value denominated in X, excluding
// uncollected fees.
func (iv *Interval) ValueInX(price float64) (float64, error) {
	x, y, err := iv.Amounts(price)
	if err != nil {
		return 0, err
	}
	return x + y/price, nil
}

// ValueInY returns the position value denominated in Y, excluding
// uncollected fees.
func (iv *Interval) ValueInY(price float64) (float64, error) {
	x, y, err := iv.Amounts(price)
	if err != nil {
		return 0, err
	}
	return x*price + y, nil
}

// Snapshot captures the position state, with uncollected fees included in
// the reported value.
func (iv *Interval) Snapshot(price float64) (domain.PositionSnapshot, error) {
	x, y, err := iv.Amounts(price)
	if err != nil {
		return domain.PositionSnapshot{}, err
	}
	ilX, err := iv.ImpermanentLossToX(price)
	if err != nil {
		return domain.PositionSnapshot{}, err
	}
	ilY, err := iv.ImpermanentLossToY(price)
	if err != nil {
		return domain.PositionSnapshot{}, err
	}

	return domain.PositionSnapshot{
		Name:    iv.name,
		Kind:    domain.PositionKindInterval,
		ValueX:  x + iv.feesX,
		ValueY:  y + iv.feesY,
		FeesX:   iv.feesX,
		FeesY:   iv.feesY,
		ILToX:   ilX,
		ILToY:   ilY,
		TxCosts: iv.txCosts,
	}, nil
}

// impermanentLossBoth returns (toX, toY) ignoring validation; price is
// already validated by callers.
func (iv *Interval) impermanentLossBoth(price float64) (float64, float64) {
	x, y, _ := iv.aligner.AmountsForLiquidity(iv.liquidity, price)
	stakeX := x + y/price
	stakeY := x*price + y
	return iv.holdX + iv.holdY/price - stakeX, iv.holdX*price + iv.holdY - stakeY
}
