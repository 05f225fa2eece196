package domain

import "github.com/shopspring/decimal"

// EdgeConfig holds the qualification thresholds. Loaded once at startup and
// immutable for the run.
type EdgeConfig struct {
	// Buffer is the fee/slippage allowance subtracted from the guaranteed
	// payout before comparing against the basket cost, e.g. 0.03.
	Buffer decimal.Decimal

	// MinEdge is the smallest edge worth acting on, e.g. 0.01.
	MinEdge decimal.Decimal
}

// Threshold returns 1 - buffer - min_edge. A basket qualifies only when its
// price sum is strictly below this value.
func (c EdgeConfig) Threshold() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(c.Buffer).Sub(c.MinEdge)
}

// Opportunity is a qualifying basket with its computed edge. Ephemeral:
// produced by the detector, consumed by the planner, never persisted.
type Opportunity struct {
	Basket   Basket
	PriceSum decimal.Decimal
	// Edge = 1 - PriceSum - Buffer, on unrounded decimals.
	Edge decimal.Decimal
}
