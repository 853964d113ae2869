package history

import (
	"testing"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/portfolio"
	"github.com/mellow-finance/mellow-strategy-sdk/internal/position"
)

func TestPortfolioHistory(t *testing.T) {
	h := NewPortfolioHistory()
	if _, ok := h.Last(); ok {
		t.Fatal("Last on empty history")
	}

	h.Add(domain.PortfolioSnapshot{Timestamp: 1, Price: 10})
	h.Add(domain.PortfolioSnapshot{Timestamp: 2, Price: 11})

	if h.Len() != 2 {
		t.Fatalf("Len=%d", h.Len())
	}
	last, ok := h.Last()
	if !ok || last.Timestamp != 2 {
		t.Fatalf("Last=%+v ok=%v", last, ok)
	}
	if h.Snapshots()[0].Timestamp != 1 {
		t.Fatalf("order: %+v", h.Snapshots())
	}
}

func TestRebalanceHistory_DropsEmptyActions(t *testing.T) {
	h := NewRebalanceHistory()
	h.Add(1, "mint")
	h.Add(2, "")
	h.Add(3, "burn")

	if h.Len() != 2 {
		t.Fatalf("Len=%d", h.Len())
	}
	recs := h.Records()
	if recs[0].Action != "mint" || recs[1].Action != "burn" {
		t.Fatalf("records: %+v", recs)
	}
}

func TestIntervalHistory_Observe(t *testing.T) {
	p := portfolio.New()
	b, err := position.NewBalance("vault", 1, 1, position.BalanceConfig{})
	if err != nil {
		t.Fatalf("NewBalance: %v", err)
	}
	if err := p.Append(b); err != nil {
		t.Fatalf("Append: %v", err)
	}
	iv, err := position.NewInterval("range", 15, 16, position.IntervalConfig{FeeTier: domain.FeeMiddle})
	if err != nil {
		t.Fatalf("NewInterval: %v", err)
	}
	if err := iv.Deposit(1, 0, 10); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := p.Append(iv); err != nil {
		t.Fatalf("Append interval: %v", err)
	}

	h := NewIntervalHistory()
	h.Observe(42, p)

	// Only the interval position is recorded.
	if h.Len() != 1 {
		t.Fatalf("Len=%d", h.Len())
	}
	snap := h.Snapshots()[0]
	if snap.Name != "range" || snap.Timestamp != 42 {
		t.Fatalf("snapshot: %+v", snap)
	}
	if snap.LowerPrice != 15 || snap.UpperPrice != 16 || snap.Liquidity <= 0 {
		t.Fatalf("snapshot bounds: %+v", snap)
	}
}
