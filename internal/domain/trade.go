package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegStatus records how a single basket leg ended.
type LegStatus string

const (
	LegFilled    LegStatus = "filled"
	LegRejected  LegStatus = "rejected"  // FOK killed with zero fill
	LegSimulated LegStatus = "simulated" // dry-run fill
	LegError     LegStatus = "error"     // transport failure on this leg
)

// TradeStatus is the terminal state of a basket execution.
type TradeStatus string

const (
	TradeSettled TradeStatus = "settled"
	TradeFailed  TradeStatus = "failed"
)

// TradeLeg is the outcome of one leg submission. FilledUSD is either zero
// or equal to RequestedUSD; FOK admits nothing in between.
type TradeLeg struct {
	TokenID      string
	Outcome      string
	RequestedUSD decimal.Decimal
	FilledUSD    decimal.Decimal
	FilledPrice  decimal.Decimal
	Status       LegStatus
	Message      string
}

// TradeRecord summarizes one basket execution. Appended to the session log
// (and the trade store when configured) and never mutated afterwards.
type TradeRecord struct {
	ID         string
	MarketID   string
	Slug       string
	PriceSum   decimal.Decimal
	Edge       decimal.Decimal
	DryRun     bool
	Legs       []TradeLeg
	Status     TradeStatus
	ExecutedAt time.Time
}

// FilledLegs counts legs that ended filled or simulated-filled.
func (r TradeRecord) FilledLegs() int {
	n := 0
	for _, l := range r.Legs {
		if l.Status == LegFilled || l.Status == LegSimulated {
			n++
		}
	}
	return n
}
