// Package uniswap implements the concentrated-liquidity math used by the
// backtesting engine: conversions between (interval, liquidity) and token
// amounts, and the exact swap needed to deposit an arbitrary token pair into
// an interval with no leftover.
//
// All formulas are the standard analytic square-root-price forms. Prices are
// quoted as Y per X throughout.
package uniswap

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTolerance is the absolute epsilon used for clamping floating-point
// residue and for optimality comparisons. It is a fixed absolute value, not
// scaled by token decimals.
const DefaultTolerance = 1e-9

// Math errors.
var (
	// ErrInvalidInterval is returned when interval bounds do not satisfy
	// 0 < lower < upper.
	ErrInvalidInterval = errors.New("invalid interval bounds")

	// ErrOutOfRange is returned when a price or amount input is non-positive,
	// negative, or non-finite.
	ErrOutOfRange = errors.New("price or amount out of range")
)

// Aligner converts between the liquidity representation and the token-amount
// representation of one interval [LowerPrice, UpperPrice]. It is stateless
// beyond the interval bounds and is safe to share between positions.
type Aligner struct {
	// Tolerance is the epsilon used for clamping and optimality checks.
	Tolerance float64

	lowerPrice float64
	upperPrice float64
	sqrtLower  float64
	sqrtUpper  float64
}

// NewAligner creates an aligner for the interval [lowerPrice, upperPrice].
// Returns ErrInvalidInterval unless 0 < lowerPrice < upperPrice.
func NewAligner(lowerPrice, upperPrice float64) (*Aligner, error) {
	if !isFinitePositive(lowerPrice) || !isFinitePositive(upperPrice) || lowerPrice >= upperPrice {
		return nil, fmt.Errorf("%w: [%v, %v]", ErrInvalidInterval, lowerPrice, upperPrice)
	}
	return &Aligner{
		Tolerance:  DefaultTolerance,
		lowerPrice: lowerPrice,
		upperPrice: upperPrice,
		sqrtLower:  math.Sqrt(lowerPrice),
		sqrtUpper:  math.Sqrt(upperPrice),
	}, nil
}

// LowerPrice returns the lower bound of the interval.
func (a *Aligner) LowerPrice() float64 { return a.lowerPrice }

// UpperPrice returns the upper bound of the interval.
func (a *Aligner) UpperPrice() float64 { return a.upperPrice }

// liquidityForX returns the liquidity backed by x tokens of X between the
// sqrt bounds sa < sb. Correct when the price is at or below sa.
func liquidityForX(sa, sb, x float64) float64 {
	return x * sa * sb / (sb - sa)
}

// liquidityForY returns the liquidity backed by y tokens of Y between the
// sqrt bounds sa < sb. Correct when the price is at or above sb.
func liquidityForY(sa, sb, y float64) float64 {
	return y / (sb - sa)
}

// xForLiquidity returns the amount of X backing liq between sqrt bounds sa < sb.
func xForLiquidity(sa, sb, liq float64) float64 {
	return liq * (sb - sa) / (sa * sb)
}

// yForLiquidity returns the amount of Y backing liq between sqrt bounds sa < sb.
func yForLiquidity(sa, sb, liq float64) float64 {
	return liq * (sb - sa)
}

// AmountsForLiquidity converts liquidity to token amounts at the given price.
// Below the interval the position is all X, above it all Y; inside it holds
// both, clamped at the interval boundaries.
func (a *Aligner) AmountsForLiquidity(liq, price float64) (x, y float64, err error) {
	if liq < 0 {
		return 0, 0, fmt.Errorf("%w: liquidity %v", ErrOutOfRange, liq)
	}
	if !isFinitePositive(price) {
		return 0, 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}

	sqrtPrice := math.Sqrt(price)
	switch {
	case sqrtPrice <= a.sqrtLower:
		return xForLiquidity(a.sqrtLower, a.sqrtUpper, liq), 0, nil
	case sqrtPrice < a.sqrtUpper:
		x = xForLiquidity(sqrtPrice, a.sqrtUpper, liq)
		y = yForLiquidity(a.sqrtLower, sqrtPrice, liq)
		return x, y, nil
	default:
		return 0, yForLiquidity(a.sqrtLower, a.sqrtUpper, liq), nil
	}
}

// LiquidityForAmounts returns the maximum liquidity obtainable from (x, y) at
// the given price without swapping. Inside the interval the amount-limiting
// side determines the result; the other side's excess is leftover, which
// Leftover reports.
func (a *Aligner) LiquidityForAmounts(x, y, price float64) (float64, error) {
	if err := a.validateAmounts(x, y, price); err != nil {
		return 0, err
	}

	sqrtPrice := math.Sqrt(price)
	switch {
	case sqrtPrice <= a.sqrtLower:
		return liquidityForX(a.sqrtLower, a.sqrtUpper, x), nil
	case sqrtPrice >= a.sqrtUpper:
		return liquidityForY(a.sqrtLower, a.sqrtUpper, y), nil
	default:
		liqX := liquidityForX(sqrtPrice, a.sqrtUpper, x)
		liqY := liquidityForY(a.sqrtLower, sqrtPrice, y)
		return math.Min(liqX, liqY), nil
	}
}

// Leftover returns the token amounts of (x, y) that would not be absorbed by
// depositing at the given price.
func (a *Aligner) Leftover(x, y, price float64) (leftX, leftY float64, err error) {
	liq, err := a.LiquidityForAmounts(x, y, price)
	if err != nil {
		return 0, 0, err
	}
	usedX, usedY, err := a.AmountsForLiquidity(liq, price)
	if err != nil {
		return 0, 0, err
	}
	return clamp(x-usedX, a.Tolerance), clamp(y-usedY, a.Tolerance), nil
}

// RealPrice returns the ratio y/x that a deposit at the given price must
// satisfy to mint with no leftover. Returns 0 below the interval (all X) and
// +Inf above it (all Y).
func (a *Aligner) RealPrice(price float64) float64 {
	sqrtPrice := math.Sqrt(price)
	if sqrtPrice >= a.sqrtUpper {
		return math.Inf(1)
	}
	if sqrtPrice <= a.sqrtLower {
		return 0
	}
	numer := (sqrtPrice - a.sqrtLower) * a.sqrtUpper * sqrtPrice
	denom := a.sqrtUpper - sqrtPrice
	return numer / denom
}

// CheckOptimal reports whether (x, y) can be fully deposited at the given
// price with no leftover, together with the liquidity each side supports.
func (a *Aligner) CheckOptimal(x, y, price float64) (ok bool, liqX, liqY float64, err error) {
	if err := a.validateAmounts(x, y, price); err != nil {
		return false, 0, 0, err
	}

	sqrtPrice := math.Sqrt(price)
	switch {
	case sqrtPrice <= a.sqrtLower:
		liqX = liquidityForX(a.sqrtLower, a.sqrtUpper, x)
		return y <= a.Tolerance, liqX, 0, nil
	case sqrtPrice >= a.sqrtUpper:
		liqY = liquidityForY(a.sqrtLower, a.sqrtUpper, y)
		return x <= a.Tolerance, 0, liqY, nil
	default:
		liqX = liquidityForX(sqrtPrice, a.sqrtUpper, x)
		liqY = liquidityForY(a.sqrtLower, sqrtPrice, y)
		diff := math.Abs(liqX - liqY)
		scale := math.Max(1, math.Max(liqX, liqY))
		return diff/scale <= a.Tolerance, liqX, liqY, nil
	}
}

// SwapToOptimal computes the swap that makes (x, y) depositable at the given
// price with no leftover, accounting for the swap fee reducing the received
// amount. Exactly one of (dx, dy) is nonzero: dx is the amount of X to swap
// to Y, dy the amount of Y to swap to X. Both are zero when the pair is
// already optimal.
func (a *Aligner) SwapToOptimal(x, y, price, swapFee float64) (dx, dy float64, err error) {
	if err := a.validateAmounts(x, y, price); err != nil {
		return 0, 0, err
	}
	if swapFee < 0 || swapFee >= 1 {
		return 0, 0, fmt.Errorf("%w: swap fee %v", ErrOutOfRange, swapFee)
	}

	sqrtPrice := math.Sqrt(price)
	// Outside the interval the deposit is single-sided: swap the whole
	// wrong-side balance.
	if sqrtPrice <= a.sqrtLower {
		return 0, y, nil
	}
	if sqrtPrice >= a.sqrtUpper {
		return x, 0, nil
	}

	// In range: solve y' = r*x' where r is the required y/x ratio,
	// x' and y' being the post-swap amounts net of the fee.
	r := a.RealPrice(price)
	excess := r*x - y
	switch {
	case excess > 0:
		dx = excess / (r + price*(1-swapFee))
		return clamp(dx, a.Tolerance), 0, nil
	case excess < 0:
		dy = -excess / (1 + r*(1-swapFee)/price)
		return 0, clamp(dy, a.Tolerance), nil
	default:
		return 0, 0, nil
	}
}

// AmountsAfterSwap returns the token amounts left after performing the swap
// computed by SwapToOptimal, i.e. the exact amounts to deposit.
func (a *Aligner) AmountsAfterSwap(x, y, price, swapFee float64) (newX, newY float64, err error) {
	dx, dy, err := a.SwapToOptimal(x, y, price, swapFee)
	if err != nil {
		return 0, 0, err
	}
	newX = clamp(x-dx+dy*(1-swapFee)/price, a.Tolerance)
	newY = clamp(y-dy+dx*(1-swapFee)*price, a.Tolerance)
	return newX, newY, nil
}

func (a *Aligner) validateAmounts(x, y, price float64) error {
	if !isFinitePositive(price) {
		return fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Errorf("%w: x amount %v", ErrOutOfRange, x)
	}
	if y < 0 || math.IsNaN(y) || math.IsInf(y, 0) {
		return fmt.Errorf("%w: y amount %v", ErrOutOfRange, y)
	}
	return nil
}

// clamp zeroes small negative floating residue; values below -eps are kept
// so callers can detect genuine violations.
func clamp(v, eps float64) float64 {
	if v > -eps && v < 0 {
		return 0
	}
	return v
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
