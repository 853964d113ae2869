// Package position implements the two portfolio position variants: a
// bi-currency balance vault and a concentrated-liquidity interval position.
// Both satisfy the Position interface so a portfolio can value and snapshot
// them without knowing the concrete kind.
package position

import (
	"errors"
	"math"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/uniswap"
)

// Position errors.
var (
	// ErrInsufficientFunds is returned when a withdrawal or swap exceeds the
	// held balance beyond the configured tolerance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotOptimal is returned when a deposit's token amounts do not divide
	// evenly into the interval at the current price. Callers are expected to
	// pre-swap via Aligner.SwapToOptimal.
	ErrNotOptimal = errors.New("token amounts are not optimal for the interval")

	// ErrOutOfRange is returned for non-positive or non-finite price/amount
	// inputs. Shared with the math layer.
	ErrOutOfRange = uniswap.ErrOutOfRange
)

// Position is the capability set common to both variants. Mutating
// operations are defined on the concrete types; strategies hold the concrete
// reference returned at creation time.
type Position interface {
	// Name returns the unique position name used by the portfolio.
	Name() string

	// Kind returns domain.PositionKindBalance or domain.PositionKindInterval.
	Kind() string

	// Amounts returns the token amounts held at the given price.
	Amounts(price float64) (x, y float64, err error)

	// ValueInX returns the position value denominated in X.
	ValueInX(price float64) (float64, error)

	// ValueInY returns the position value denominated in Y.
	ValueInY(price float64) (float64, error)

	// TxCosts returns the cumulative transaction costs charged to the
	// position, in Y units. Costs are a valuation-time decrement, never a
	// token-balance decrement.
	TxCosts() float64

	// Snapshot captures the position state at the given price.
	Snapshot(price float64) (domain.PositionSnapshot, error)
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// clampZero zeroes negative floating residue.
func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
