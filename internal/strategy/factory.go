package strategy

import (
	"errors"

	"github.com/mellow-finance/mellow-strategy-sdk/internal/domain"
)

// Factory errors
var (
	ErrUnknownStrategyType = errors.New("unknown strategy type")
	ErrMissingInterval     = errors.New("passive requires lower and upper prices")
	ErrMissingOwner        = errors.New("follow_address requires an owner address")
)

// Strategy type names accepted by FromConfig.
const (
	TypeHold          = "hold"
	TypePassive       = "passive"
	TypeFollowAddress = "follow_address"
)

// Config holds the union of parameters for the built-in strategies.
// Commands fill it from flags and hand it to FromConfig.
type Config struct {
	Type string

	InitialX  float64
	InitialY  float64
	XInterest float64
	YInterest float64

	LowerPrice float64
	UpperPrice float64
	FeeTier    domain.Fee
	SwapFee    float64
	TxCost     float64

	Owner     string
	Tolerance float64
}

// FromConfig creates a Strategy from a Config.
// Validates required parameters per strategy type.
func FromConfig(cfg Config) (Strategy, error) {
	switch cfg.Type {
	case TypeHold:
		return NewHoldStrategy(cfg.InitialX, cfg.InitialY, cfg.XInterest, cfg.YInterest), nil

	case TypePassive:
		if cfg.LowerPrice <= 0 || cfg.UpperPrice <= cfg.LowerPrice {
			return nil, ErrMissingInterval
		}
		return NewPassiveStrategy(PassiveConfig{
			LowerPrice: cfg.LowerPrice,
			UpperPrice: cfg.UpperPrice,
			InitialX:   cfg.InitialX,
			InitialY:   cfg.InitialY,
			FeeTier:    cfg.FeeTier,
			SwapFee:    cfg.SwapFee,
			TxCost:     cfg.TxCost,
			XInterest:  cfg.XInterest,
			YInterest:  cfg.YInterest,
		}), nil

	case TypeFollowAddress:
		if cfg.Owner == "" {
			return nil, ErrMissingOwner
		}
		return NewFollowAddressStrategy(FollowAddressConfig{
			Owner:     cfg.Owner,
			FeeTier:   cfg.FeeTier,
			TxCost:    cfg.TxCost,
			Tolerance: cfg.Tolerance,
		}), nil

	default:
		return nil, ErrUnknownStrategyType
	}
}
