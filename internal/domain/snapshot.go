package domain

// Position kind constants used in snapshots.
const (
	PositionKindBalance  = "balance"
	PositionKindInterval = "interval"
)

// Strategy action tags recorded in RebalanceRecord.
const (
	ActionMint      = "mint"
	ActionBurn      = "burn"
	ActionSwap      = "swap"
	ActionRebalance = "rebalance"
)

// PositionSnapshot captures the state of one named position at an instant.
type PositionSnapshot struct {
	Name string
	Kind string // PositionKindBalance | PositionKindInterval

	// Token amounts held, including uncollected fees for interval positions.
	ValueX float64
	ValueY float64

	// Uncollected fees (interval positions only).
	FeesX float64
	FeesY float64

	// Impermanent loss versus holding, denominated in X and Y
	// (interval positions only).
	ILToX float64
	ILToY float64

	// Cumulative transaction costs charged to this position, in Y units.
	TxCosts float64
}

// PortfolioSnapshot is one row of PortfolioHistory: the full portfolio state
// after processing one event. Corresponds to the portfolio_history table in
// ClickHouse. Immutable once recorded.
type PortfolioSnapshot struct {
	RunID     string
	Timestamp int64 // Unix milliseconds
	Price     float64

	Positions []PositionSnapshot

	// Portfolio value net of accumulated transaction costs, in each numeraire.
	TotalValueToX float64
	TotalValueToY float64
}

// RebalanceRecord is one row of RebalanceHistory: a strategy action tag.
// Only recorded for events where the strategy returned a non-empty tag.
type RebalanceRecord struct {
	RunID     string
	Timestamp int64
	Action    string
}

// IntervalSnapshot is one row of IntervalHistory: the state of one interval
// position after processing one event.
type IntervalSnapshot struct {
	RunID      string
	Timestamp  int64
	Name       string
	LowerPrice float64
	UpperPrice float64
	Liquidity  float64
	FeesX      float64
	FeesY      float64
}
