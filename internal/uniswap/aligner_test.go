package uniswap

import (
	"errors"
	"math"
	"testing"
)

func TestNewAligner_InvalidBounds(t *testing.T) {
	cases := []struct {
		name  string
		lower float64
		upper float64
	}{
		{"zero lower", 0, 16},
		{"negative lower", -1, 16},
		{"equal bounds", 15, 15},
		{"inverted bounds", 16, 15},
		{"nan upper", 15, math.NaN()},
		{"inf upper", 15, math.Inf(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAligner(tc.lower, tc.upper)
			if !errors.Is(err, ErrInvalidInterval) {
				t.Errorf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestAmountsForLiquidity_SingleSided(t *testing.T) {
	a, err := NewAligner(15, 16)
	if err != nil {
		t.Fatalf("NewAligner failed: %v", err)
	}

	// Below the interval: all X.
	x, y, err := a.AmountsForLiquidity(100, 10)
	if err != nil {
		t.Fatalf("AmountsForLiquidity failed: %v", err)
	}
	if x <= 0 {
		t.Errorf("expected x > 0 below range, got %v", x)
	}
	if y != 0 {
		t.Errorf("expected y = 0 below range, got %v", y)
	}

	// Above the interval: all Y.
	x, y, err = a.AmountsForLiquidity(100, 20)
	if err != nil {
		t.Fatalf("AmountsForLiquidity failed: %v", err)
	}
	if x != 0 {
		t.Errorf("expected x = 0 above range, got %v", x)
	}
	if y <= 0 {
		t.Errorf("expected y > 0 above range, got %v", y)
	}
}

func TestAmountsForLiquidity_InRange(t *testing.T) {
	a, _ := NewAligner(15, 16)

	liq := 250.0
	price := 15.5
	x, y, err := a.AmountsForLiquidity(liq, price)
	if err != nil {
		t.Fatalf("AmountsForLiquidity failed: %v", err)
	}
	if x <= 0 || y <= 0 {
		t.Fatalf("expected both sides positive in range, got x=%v y=%v", x, y)
	}

	// Check against the analytic forms directly.
	sp, sl, su := math.Sqrt(price), math.Sqrt(15.0), math.Sqrt(16.0)
	wantX := liq * (su - sp) / (sp * su)
	wantY := liq * (sp - sl)
	if math.Abs(x-wantX) > 1e-12 {
		t.Errorf("x mismatch: got %v, want %v", x, wantX)
	}
	if math.Abs(y-wantY) > 1e-12 {
		t.Errorf("y mismatch: got %v, want %v", y, wantY)
	}
}

func TestLiquidityRoundTrip(t *testing.T) {
	a, _ := NewAligner(15, 16)

	liquidities := []float64{1e-3, 1, 42.5, 1e4, 3e7}
	prices := []float64{15.0001, 15.2, 15.5, 15.8, 15.9999}

	for _, liq := range liquidities {
		for _, price := range prices {
			x, y, err := a.AmountsForLiquidity(liq, price)
			if err != nil {
				t.Fatalf("AmountsForLiquidity(%v, %v) failed: %v", liq, price, err)
			}
			got, err := a.LiquidityForAmounts(x, y, price)
			if err != nil {
				t.Fatalf("LiquidityForAmounts failed: %v", err)
			}
			if math.Abs(got-liq)/liq > 1e-9 {
				t.Errorf("round trip at L=%v p=%v: got %v", liq, price, got)
			}
		}
	}
}

func TestLiquidityForAmounts_LimitingSide(t *testing.T) {
	a, _ := NewAligner(15, 16)

	price := 15.5
	x, y, _ := a.AmountsForLiquidity(100, price)

	// Doubling only the X side must not raise liquidity: Y is limiting.
	liq, err := a.LiquidityForAmounts(2*x, y, price)
	if err != nil {
		t.Fatalf("LiquidityForAmounts failed: %v", err)
	}
	if math.Abs(liq-100)/100 > 1e-9 {
		t.Errorf("expected Y-limited liquidity 100, got %v", liq)
	}

	leftX, leftY, err := a.Leftover(2*x, y, price)
	if err != nil {
		t.Fatalf("Leftover failed: %v", err)
	}
	if math.Abs(leftX-x)/x > 1e-9 {
		t.Errorf("expected leftover x ~= %v, got %v", x, leftX)
	}
	if leftY > 1e-12 {
		t.Errorf("expected no leftover y, got %v", leftY)
	}
}

func TestSwapToOptimal_ZeroLeftover(t *testing.T) {
	a, _ := NewAligner(15, 16)

	cases := []struct {
		name  string
		x, y  float64
		price float64
		fee   float64
	}{
		{"all x in range", 10, 0, 15.5, 0.003},
		{"all y in range", 0, 100, 15.5, 0.003},
		{"mixed in range", 3, 40, 15.3, 0.003},
		{"mixed near lower", 5, 1, 15.01, 0.0005},
		{"mixed near upper", 0.1, 90, 15.99, 0.01},
		{"zero fee", 7, 7, 15.7, 0},
		{"below range holds y", 2, 30, 10, 0.003},
		{"above range holds x", 2, 30, 20, 0.003},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dx, dy, err := a.SwapToOptimal(tc.x, tc.y, tc.price, tc.fee)
			if err != nil {
				t.Fatalf("SwapToOptimal failed: %v", err)
			}
			if dx > 0 && dy > 0 {
				t.Fatalf("both swap legs nonzero: dx=%v dy=%v", dx, dy)
			}
			if dx > tc.x+1e-12 || dy > tc.y+1e-12 {
				t.Fatalf("swap exceeds holdings: dx=%v/%v dy=%v/%v", dx, tc.x, dy, tc.y)
			}

			newX, newY, err := a.AmountsAfterSwap(tc.x, tc.y, tc.price, tc.fee)
			if err != nil {
				t.Fatalf("AmountsAfterSwap failed: %v", err)
			}
			ok, liqX, liqY, err := a.CheckOptimal(newX, newY, tc.price)
			if err != nil {
				t.Fatalf("CheckOptimal failed: %v", err)
			}
			if !ok {
				t.Errorf("post-swap amounts not optimal: x=%v y=%v liqX=%v liqY=%v",
					newX, newY, liqX, liqY)
			}

			leftX, leftY, err := a.Leftover(newX, newY, tc.price)
			if err != nil {
				t.Fatalf("Leftover failed: %v", err)
			}
			scale := math.Max(1, math.Max(tc.x, tc.y))
			if leftX/scale > 1e-9 || leftY/scale > 1e-9 {
				t.Errorf("leftover after optimal swap: x=%v y=%v", leftX, leftY)
			}
		})
	}
}

func TestSwapToOptimal_AlreadyOptimal(t *testing.T) {
	a, _ := NewAligner(15, 16)

	// Amounts generated from liquidity are optimal by construction.
	x, y, _ := a.AmountsForLiquidity(50, 15.4)
	dx, dy, err := a.SwapToOptimal(x, y, 15.4, 0.003)
	if err != nil {
		t.Fatalf("SwapToOptimal failed: %v", err)
	}
	if math.Abs(dx) > 1e-9 || math.Abs(dy) > 1e-9 {
		t.Errorf("expected no swap for optimal pair, got dx=%v dy=%v", dx, dy)
	}

	// Single-sided X below the range needs no swap.
	dx, dy, err = a.SwapToOptimal(5, 0, 10, 0.003)
	if err != nil {
		t.Fatalf("SwapToOptimal failed: %v", err)
	}
	if dx != 0 || dy != 0 {
		t.Errorf("expected (0,0) below range with no y, got dx=%v dy=%v", dx, dy)
	}
}

func TestSwapToOptimal_ValueConservation(t *testing.T) {
	a, _ := NewAligner(15, 16)

	x, y, price, fee := 3.0, 40.0, 15.3, 0.003
	dx, dy, err := a.SwapToOptimal(x, y, price, fee)
	if err != nil {
		t.Fatalf("SwapToOptimal failed: %v", err)
	}
	newX, newY, err := a.AmountsAfterSwap(x, y, price, fee)
	if err != nil {
		t.Fatalf("AmountsAfterSwap failed: %v", err)
	}

	// Post-swap value equals pre-swap value minus the fee on the swapped leg.
	valueBefore := x*price + y
	valueAfter := newX*price + newY
	feePaid := dx*price*fee + dy*fee
	if math.Abs(valueBefore-valueAfter-feePaid) > 1e-9*valueBefore {
		t.Errorf("value leak: before=%v after=%v fee=%v", valueBefore, valueAfter, feePaid)
	}
}

func TestAligner_RejectsBadInputs(t *testing.T) {
	a, _ := NewAligner(15, 16)

	if _, _, err := a.AmountsForLiquidity(10, -1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for negative price, got %v", err)
	}
	if _, _, err := a.AmountsForLiquidity(10, math.NaN()); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for NaN price, got %v", err)
	}
	if _, err := a.LiquidityForAmounts(-1, 0, 15.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for negative x, got %v", err)
	}
	if _, _, err := a.SwapToOptimal(1, 1, 15.5, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for fee >= 1, got %v", err)
	}
}
