// Package strategy contains liquidity-provision strategies driven by the
// backtest engine.
package strategy

import "github.com/mellow-finance/mellow-strategy-sdk/internal/backtest"

// Strategy aliases the engine-facing interface so constructors in this
// package can be passed to backtest.NewEngine directly.
type Strategy = backtest.Strategy

// Position names used by the built-in strategies.
const (
	VaultName    = "vault"
	IntervalName = "interval"
)
