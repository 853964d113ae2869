package domain

import "fmt"

// Fee is a Uniswap V3 fee tier expressed in hundredths of a basis point,
// matching the on-chain representation (500 = 0.05%, 3000 = 0.3%).
type Fee int32

// Available fee tiers.
const (
	FeeUltraLow Fee = 100
	FeeLow      Fee = 500
	FeeMiddle   Fee = 3000
	FeeHigh     Fee = 10000
)

// Percent returns the fee as a percentage (0.05, 0.3, 1).
func (f Fee) Percent() float64 {
	return float64(f) / 10000
}

// Fraction returns the fee as a fraction of the traded amount (0.0005, 0.003, 0.01).
func (f Fee) Fraction() float64 {
	return float64(f) / 1_000_000
}

// TickSpacing returns the tick spacing associated with the fee tier.
func (f Fee) TickSpacing() int {
	switch f {
	case FeeUltraLow:
		return 1
	case FeeLow:
		return 10
	case FeeMiddle:
		return 60
	case FeeHigh:
		return 200
	default:
		return 0
	}
}

// Token describes one side of a pool pair.
type Token struct {
	Symbol   string
	Address  string
	Decimals int
}

// Common mainnet tokens.
var (
	TokenWBTC = Token{Symbol: "WBTC", Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8}
	TokenWETH = Token{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18}
	TokenUSDC = Token{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6}
	TokenUSDT = Token{Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6}
	TokenDAI  = Token{Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18}
)

// Pool is an immutable descriptor of one concentrated-liquidity pool.
// TokenX is the first token of the ordered pair, TokenY the second; all
// prices in the engine are quoted as Y per X. A Pool only parameterizes
// the math (fee tier, decimal normalization) and is never mutated.
type Pool struct {
	TokenX Token
	TokenY Token
	Fee    Fee
}

// NewPool creates a pool descriptor for an ordered token pair.
func NewPool(tokenX, tokenY Token, fee Fee) Pool {
	return Pool{TokenX: tokenX, TokenY: tokenY, Fee: fee}
}

// Name returns a unique identifier for the pool, e.g. "WBTC_WETH_3000".
func (p Pool) Name() string {
	return fmt.Sprintf("%s_%s_%d", p.TokenX.Symbol, p.TokenY.Symbol, p.Fee)
}

// DecimalsDiff returns the decimal-scaling offset between the pair,
// used to convert raw on-chain prices into human units.
func (p Pool) DecimalsDiff() int {
	return p.TokenX.Decimals - p.TokenY.Decimals
}
