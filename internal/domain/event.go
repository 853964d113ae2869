package domain

import "time"

// EventKind is the type of a replayed pool event.
type EventKind string

// Event kind constants.
const (
	EventMint EventKind = "mint"
	EventBurn EventKind = "burn"
	EventSwap EventKind = "swap"
)

// PoolEvent is one row of the replayed pool log.
// Corresponds to the pool_events table in PostgreSQL.
//
// The composite key (block, tx_hash, log_index) defines the deterministic
// replay order; Timestamp carries the block time in Unix milliseconds and is
// non-decreasing along that order.
type PoolEvent struct {
	ID       int64  // BIGSERIAL primary key
	Pool     string // pool identifier, e.g. "WBTC_WETH_3000"
	Block    int64  // block number
	TxHash   string // transaction hash
	LogIndex int    // index of the event within the transaction
	Timestamp int64 // Unix timestamp in milliseconds

	Kind EventKind

	// PriceBefore is the pool price before the event; equal to Price for
	// mint/burn rows. Price is the pool price after the event. Both are
	// quoted as Y per X.
	PriceBefore float64
	Price       float64

	// Mint/burn payload.
	LowerPrice float64
	UpperPrice float64
	Liquidity  float64

	// Token amounts moved by the event.
	AmountX float64
	AmountY float64

	Owner     string // originating address, used by address-following strategies
	CreatedAt int64  // record creation timestamp (ms)
}

// Time returns the event timestamp as time.Time.
func (e *PoolEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}
