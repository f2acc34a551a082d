package engine

import "github.com/shopspring/decimal"

// Config holds the paperTrading.* settings from spec.md §6.
type Config struct {
	Enabled                 bool
	InitialBalance          decimal.Decimal
	MaxConcurrentPositions  int
	MaxPositionSizePercent  decimal.Decimal
	MaxStopLossPercent      decimal.Decimal
	Leverage                int
}

// DefaultConfig mirrors the defaults documented in spec.md §6.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		InitialBalance:         decimal.NewFromInt(1000),
		MaxConcurrentPositions: 2,
		MaxPositionSizePercent: decimal.NewFromFloat(0.10),
		MaxStopLossPercent:     decimal.NewFromFloat(0.20),
		Leverage:               2,
	}
}
