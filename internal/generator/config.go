package generator

import "github.com/shopspring/decimal"

// Config drives the synthetic mule-ring generator.
type Config struct {
	NumLayer1            int
	MaxLayer2            int
	WithdrawalChance     float64
	HighWithdrawalChance float64
	RepeatChance         float64
	SharedMuleChance     float64
	NoiseRows            int
	MalformedRows        int
	MinAmount            decimal.Decimal
	HighWithdrawal       decimal.Decimal
	DecoratedAmounts     bool
	Seed                 int64
}

// DefaultConfig returns settings that produce a small ring exercising every
// branch of the tracer.
func DefaultConfig() Config {
	return Config{
		NumLayer1:            5,
		MaxLayer2:            3,
		WithdrawalChance:     0.6,
		HighWithdrawalChance: 0.4,
		RepeatChance:         0.2,
		SharedMuleChance:     0.15,
		NoiseRows:            20,
		MalformedRows:        2,
		MinAmount:            decimal.NewFromInt(50000),
		HighWithdrawal:       decimal.NewFromInt(100000),
		DecoratedAmounts:     true,
		Seed:                 42,
	}
}
