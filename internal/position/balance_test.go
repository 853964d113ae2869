package position

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestNewBalance_Validation(t *testing.T) {
	if _, err := NewBalance("vault", -1, 0, BalanceConfig{}); err == nil {
		t.Fatal("expected error for negative x")
	}
	if _, err := NewBalance("vault", 0, math.NaN(), BalanceConfig{}); err == nil {
		t.Fatal("expected error for NaN y")
	}
	b, err := NewBalance("vault", 1, 2, BalanceConfig{})
	if err != nil {
		t.Fatalf("NewBalance: %v", err)
	}
	if b.Name() != "vault" || b.Kind() != domain.PositionKindBalance {
		t.Fatalf("unexpected identity: %q %q", b.Name(), b.Kind())
	}
}

func TestBalance_DepositWithdraw(t *testing.T) {
	b, err := NewBalance("vault", 10, 100, BalanceConfig{})
	if err != nil {
		t.Fatalf("NewBalance: %v", err)
	}

	if err := b.Deposit(5, 50); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if b.X() != 15 || b.Y() != 150 {
		t.Fatalf("after deposit: x=%v y=%v", b.X(), b.Y())
	}

	x, y, err := b.Withdraw(15, 150)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if x != 15 || y != 150 {
		t.Fatalf("withdrawn: x=%v y=%v", x, y)
	}
	if b.X() != 0 || b.Y() != 0 {
		t.Fatalf("residual: x=%v y=%v", b.X(), b.Y())
	}
}

func TestBalance_WithdrawInsufficient(t *testing.T) {
	b, _ := NewBalance("vault", 1, 1, BalanceConfig{})
	if _, _, err := b.Withdraw(2, 0); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	if _, _, err := b.Withdraw(0, 2); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
	// A tolerance-sized overdraw clamps to zero instead of failing.
	if _, _, err := b.Withdraw(1+1e-12, 0); err != nil {
		t.Fatalf("tolerance overdraw: %v", err)
	}
	if b.X() != 0 {
		t.Fatalf("x not clamped: %v", b.X())
	}
}

func TestBalance_WithdrawFraction(t *testing.T) {
	b, _ := NewBalance("vault", 10, 40, BalanceConfig{})
	x, y, err := b.WithdrawFraction(0.25)
	if err != nil {
		t.Fatalf("WithdrawFraction: %v", err)
	}
	if !almostEqual(x, 2.5, 1e-12) || !almostEqual(y, 10, 1e-12) {
		t.Fatalf("fraction withdraw: x=%v y=%v", x, y)
	}
	if _, _, err := b.WithdrawFraction(1.5); err == nil {
		t.Fatal("expected error for fraction > 1")
	}
}

func TestBalance_SwapFeesAndCosts(t *testing.T) {
	cfg := BalanceConfig{SwapFee: 0.003, TxCost: 0.1}
	b, _ := NewBalance("vault", 10, 0, cfg)

	dy, err := b.SwapXToY(10, 100)
	if err != nil {
		t.Fatalf("SwapXToY: %v", err)
	}
	want := 10 * 100 * (1 - 0.003)
	if !almostEqual(dy, want, 1e-9) {
		t.Fatalf("dy=%v want %v", dy, want)
	}
	if b.X() != 0 || !almostEqual(b.Y(), want, 1e-9) {
		t.Fatalf("balances after swap: x=%v y=%v", b.X(), b.Y())
	}
	if !almostEqual(b.TxCosts(), 0.1, 1e-12) {
		t.Fatalf("tx costs: %v", b.TxCosts())
	}

	dx, err := b.SwapYToX(want, 100)
	if err != nil {
		t.Fatalf("SwapYToX: %v", err)
	}
	wantX := want / 100 * (1 - 0.003)
	if !almostEqual(dx, wantX, 1e-9) {
		t.Fatalf("dx=%v want %v", dx, wantX)
	}
	if !almostEqual(b.TxCosts(), 0.2, 1e-12) {
		t.Fatalf("tx costs after two swaps: %v", b.TxCosts())
	}
}

func TestBalance_Rebalance(t *testing.T) {
	b, _ := NewBalance("vault", 10, 0, BalanceConfig{})
	if err := b.Rebalance(0.5, 0.5, 100); err != nil {
		t.Fatalf("Rebalance: %v", err)
	}
	vx := b.X() * 100
	vy := b.Y()
	if !almostEqual(vx, vy, 1e-9) {
		t.Fatalf("value split after 50/50 rebalance: vx=%v vy=%v", vx, vy)
	}

	if err := b.Rebalance(1, 0, 100); err != nil {
		t.Fatalf("Rebalance all-X: %v", err)
	}
	if !almostEqual(b.Y(), 0, 1e-9) {
		t.Fatalf("y after all-X rebalance: %v", b.Y())
	}

	if err := b.Rebalance(0.7, 0.7, 100); err == nil {
		t.Fatal("expected error for fractions not summing to 1")
	}
}

func TestBalance_AccrueInterest(t *testing.T) {
	cfg := BalanceConfig{XInterest: 0.001, YInterest: 0.002}
	b, _ := NewBalance("vault", 100, 100, cfg)

	day0 := time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)
	b.AccrueInterest(day0)
	x0, y0 := b.X(), b.Y()

	// Same calendar day accrues nothing.
	b.AccrueInterest(day0.Add(6 * time.Hour))
	if b.X() != x0 || b.Y() != y0 {
		t.Fatalf("same-day accrual changed balances: x=%v y=%v", b.X(), b.Y())
	}

	// Three days later compounds three times.
	b.AccrueInterest(day0.AddDate(0, 0, 3))
	wantX := x0 * math.Pow(1.001, 3)
	wantY := y0 * math.Pow(1.002, 3)
	if !almostEqual(b.X(), wantX, 1e-9) || !almostEqual(b.Y(), wantY, 1e-9) {
		t.Fatalf("compounded: x=%v want %v, y=%v want %v", b.X(), wantX, b.Y(), wantY)
	}
}

func TestBalance_Valuation(t *testing.T) {
	b, _ := NewBalance("vault", 2, 50, BalanceConfig{})
	vx, err := b.ValueInX(25)
	if err != nil {
		t.Fatalf("ValueInX: %v", err)
	}
	if !almostEqual(vx, 2+50.0/25, 1e-12) {
		t.Fatalf("ValueInX=%v", vx)
	}
	vy, err := b.ValueInY(25)
	if err != nil {
		t.Fatalf("ValueInY: %v", err)
	}
	if !almostEqual(vy, 2*25+50, 1e-12) {
		t.Fatalf("ValueInY=%v", vy)
	}
	if _, err := b.ValueInY(0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("want ErrOutOfRange for zero price, got %v", err)
	}

	snap, err := b.Snapshot(25)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Kind != domain.PositionKindBalance || snap.ValueX != 2 || snap.ValueY != 50 {
		t.Fatalf("snapshot: %+v", snap)
	}
}
