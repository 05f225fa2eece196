package domain

import "github.com/shopspring/decimal"

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType indicates the time-in-force policy.
type OrderType string

const (
	OrderTypeFOK OrderType = "FOK" // Fill-Or-Kill
	OrderTypeGTC OrderType = "GTC" // Good-Till-Cancelled
)

// OrderPlan is one planned basket leg: a market buy for a fixed USD
// notional, fill-or-kill. Produced by the planner, consumed once by the
// coordinator, then discarded.
type OrderPlan struct {
	MarketID    string
	TokenID     string
	Outcome     string
	Side        OrderSide
	Type        OrderType
	NotionalUSD decimal.Decimal
}

// OrderResultStatus is the venue's answer to a single FOK submission.
// FOK never partially fills: the venue takes the whole size or none.
type OrderResultStatus string

const (
	OrderFilled    OrderResultStatus = "filled"
	OrderRejected  OrderResultStatus = "rejected"
	OrderSimulated OrderResultStatus = "simulated"
)

// OrderResult wraps the venue response to one leg submission.
type OrderResult struct {
	Status      OrderResultStatus
	OrderID     string
	FilledUSD   decimal.Decimal
	FilledPrice decimal.Decimal
	Message     string
}
