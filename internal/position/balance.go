package position

import (
	"fmt"
	"math"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/uniswap"
)

// BalanceConfig parameterizes a Balance position.
type BalanceConfig struct {
	// SwapFee is the fee rate applied when converting between X and Y
	// (routing through the pool or another venue).
	SwapFee float64

	// TxCost is the fixed per-swap transaction cost in Y units.
	TxCost float64

	// XInterest and YInterest are optional daily interest rates applied by
	// AccrueInterest. Zero disables accrual for that token.
	XInterest float64
	YInterest float64

	// Tolerance overrides uniswap.DefaultTolerance when nonzero.
	Tolerance float64
}

// Balance is a bi-currency vault holding idle X and Y amounts outside the
// AMM. It supports deposits, withdrawals, internal swaps at a quoted price,
// and optional external yield accrual.
type Balance struct {
	name string
	cfg  BalanceConfig

	x float64
	y float64

	txCosts     float64
	lastAccrual time.Time
}

var _ Position = (*Balance)(nil)

// NewBalance creates a balance position with initial amounts.
func NewBalance(name string, x, y float64, cfg BalanceConfig) (*Balance, error) {
	if x < 0 || y < 0 || math.IsNaN(x) || math.IsNaN(y) {
		return nil, fmt.Errorf("%w: initial amounts x=%v y=%v", ErrOutOfRange, x, y)
	}
	if cfg.SwapFee < 0 || cfg.SwapFee >= 1 {
		return nil, fmt.Errorf("%w: swap fee %v", ErrOutOfRange, cfg.SwapFee)
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = uniswap.DefaultTolerance
	}
	return &Balance{name: name, cfg: cfg, x: x, y: y}, nil
}

// Name returns the position name.
func (b *Balance) Name() string { return b.name }

// Kind returns domain.PositionKindBalance.
func (b *Balance) Kind() string { return domain.PositionKindBalance }

// X returns the held amount of X.
func (b *Balance) X() float64 { return b.x }

// Y returns the held amount of Y.
func (b *Balance) Y() float64 { return b.y }

// TxCosts returns the cumulative transaction costs in Y units.
func (b *Balance) TxCosts() float64 { return b.txCosts }

// Deposit adds token amounts to the vault.
func (b *Balance) Deposit(dx, dy float64) error {
	if dx < 0 || dy < 0 || math.IsNaN(dx) || math.IsNaN(dy) {
		return fmt.Errorf("%w: deposit dx=%v dy=%v", ErrOutOfRange, dx, dy)
	}
	b.x += dx
	b.y += dy
	return nil
}

// Withdraw removes token amounts from the vault. Requests exceeding holdings
// by more than the tolerance fail with ErrInsufficientFunds; residue within
// the tolerance is clamped.
func (b *Balance) Withdraw(dx, dy float64) (x, y float64, err error) {
	if dx < 0 || dy < 0 || math.IsNaN(dx) || math.IsNaN(dy) {
		return 0, 0, fmt.Errorf("%w: withdraw dx=%v dy=%v", ErrOutOfRange, dx, dy)
	}
	if dx > b.x+b.cfg.Tolerance {
		return 0, 0, fmt.Errorf("%w: withdraw x %v of %v", ErrInsufficientFunds, dx, b.x)
	}
	if dy > b.y+b.cfg.Tolerance {
		return 0, 0, fmt.Errorf("%w: withdraw y %v of %v", ErrInsufficientFunds, dy, b.y)
	}
	b.x = clampZero(b.x - dx)
	b.y = clampZero(b.y - dy)
	return dx, dy, nil
}

// WithdrawFraction removes the given fraction (0..1) of both balances.
func (b *Balance) WithdrawFraction(fraction float64) (x, y float64, err error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return 0, 0, fmt.Errorf("%w: fraction %v", ErrOutOfRange, fraction)
	}
	return b.Withdraw(b.x*fraction, b.y*fraction)
}

// SwapXToY converts dx of X into Y at the given price, net of the swap fee.
// Returns the amount of Y received. Charges the fixed transaction cost.
func (b *Balance) SwapXToY(dx, price float64) (float64, error) {
	if !validPrice(price) {
		return 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	if dx < 0 || math.IsNaN(dx) {
		return 0, fmt.Errorf("%w: dx %v", ErrOutOfRange, dx)
	}
	if dx > b.x+b.cfg.Tolerance {
		return 0, fmt.Errorf("%w: swap x %v of %v", ErrInsufficientFunds, dx, b.x)
	}
	b.x = clampZero(b.x - dx)
	dy := dx * price * (1 - b.cfg.SwapFee)
	b.y += dy
	b.txCosts += b.cfg.TxCost
	return dy, nil
}

// SwapYToX converts dy of Y into X at the given price, net of the swap fee.
// Returns the amount of X received. Charges the fixed transaction cost.
func (b *Balance) SwapYToX(dy, price float64) (float64, error) {
	if !validPrice(price) {
		return 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	if dy < 0 || math.IsNaN(dy) {
		return 0, fmt.Errorf("%w: dy %v", ErrOutOfRange, dy)
	}
	if dy > b.y+b.cfg.Tolerance {
		return 0, fmt.Errorf("%w: swap y %v of %v", ErrInsufficientFunds, dy, b.y)
	}
	b.y = clampZero(b.y - dy)
	dx := dy * (1 - b.cfg.SwapFee) / price
	b.x += dx
	b.txCosts += b.cfg.TxCost
	return dx, nil
}

// Rebalance swaps so that the vault holds xFraction of its value in X and
// yFraction in Y at the given price. The fractions must sum to 1.
func (b *Balance) Rebalance(xFraction, yFraction, price float64) error {
	if !validPrice(price) {
		return fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	if xFraction < 0 || yFraction < 0 || math.Abs(xFraction+yFraction-1) > b.cfg.Tolerance {
		return fmt.Errorf("%w: fractions %v + %v != 1", ErrOutOfRange, xFraction, yFraction)
	}

	dv := yFraction*price*b.x - xFraction*b.y
	switch {
	case dv > 0:
		_, err := b.SwapXToY(dv/price, price)
		return err
	case dv < 0:
		_, err := b.SwapYToX(-dv, price)
		return err
	default:
		return nil
	}
}

// AccrueInterest compounds the configured daily interest rates for the whole
// days elapsed since the previous accrual. At most one accrual per calendar
// day; same-day calls are no-ops, as is a vault with no rates configured.
func (b *Balance) AccrueInterest(now time.Time) {
	if b.cfg.XInterest == 0 && b.cfg.YInterest == 0 {
		return
	}

	day := now.UTC().Truncate(24 * time.Hour)
	if b.lastAccrual.IsZero() {
		b.lastAccrual = day
		return
	}
	if !day.After(b.lastAccrual) {
		return
	}

	days := int(day.Sub(b.lastAccrual).Hours() / 24)
	b.x *= math.Pow(1+b.cfg.XInterest, float64(days))
	b.y *= math.Pow(1+b.cfg.YInterest, float64(days))
	b.lastAccrual = day
}

// Amounts returns the held token amounts. The price argument is unused for a
// balance vault but kept for interface symmetry.
func (b *Balance) Amounts(_ float64) (x, y float64, err error) {
	return b.x, b.y, nil
}

// ValueInX returns the vault value denominated in X.
func (b *Balance) ValueInX(price float64) (float64, error) {
	if !validPrice(price) {
		return 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	return b.x + b.y/price, nil
}

// ValueInY returns the vault value denominated in Y.
func (b *Balance) ValueInY(price float64) (float64, error) {
	if !validPrice(price) {
		return 0, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	return b.x*price + b.y, nil
}

// Snapshot captures the vault state.
func (b *Balance) Snapshot(price float64) (domain.PositionSnapshot, error) {
	if !validPrice(price) {
		return domain.PositionSnapshot{}, fmt.Errorf("%w: price %v", ErrOutOfRange, price)
	}
	return domain.PositionSnapshot{
		Name:    b.name,
		Kind:    domain.PositionKindBalance,
		ValueX:  b.x,
		ValueY:  b.y,
		TxCosts: b.txCosts,
	}, nil
}
