package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Category is the market segment a basket belongs to.
type Category string

const (
	CategorySports   Category = "sports"
	CategoryCrypto   Category = "crypto"
	CategoryPolitics Category = "politics"
)

// Outcome is one leg of a basket: a named outcome, its quoted price in
// (0,1), and the ERC-1155 token ID that trades it on the CLOB.
type Outcome struct {
	Name    string
	Price   decimal.Decimal
	TokenID string
}

// Basket is the canonical representation of one market's mutually-exclusive
// outcome set. Outcomes keep the order the venue listed them in; leg
// submission follows this order.
type Basket struct {
	MarketID     string
	Slug         string
	Question     string
	Category     Category
	Outcomes     []Outcome
	LiquidityUSD float64
	Active       bool
	Closed       bool
}

// PriceSum returns the exact decimal sum of all outcome prices.
func (b Basket) PriceSum() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range b.Outcomes {
		sum = sum.Add(o.Price)
	}
	return sum
}

// TokenIDs returns the outcome token IDs in basket order.
func (b Basket) TokenIDs() []string {
	ids := make([]string, len(b.Outcomes))
	for i, o := range b.Outcomes {
		ids[i] = o.TokenID
	}
	return ids
}

// Validate checks the structural invariants: at least two outcomes, every
// price strictly inside (0,1), and a non-empty token ID per outcome.
func (b Basket) Validate() error {
	if b.MarketID == "" {
		return fmt.Errorf("%w: empty market id", ErrMalformedMarket)
	}
	if len(b.Outcomes) < 2 {
		return fmt.Errorf("%w: %d outcome(s)", ErrMalformedMarket, len(b.Outcomes))
	}
	one := decimal.NewFromInt(1)
	for i, o := range b.Outcomes {
		if o.TokenID == "" {
			return fmt.Errorf("%w: outcome %d has no token id", ErrMalformedMarket, i)
		}
		if o.Price.LessThanOrEqual(decimal.Zero) || o.Price.GreaterThanOrEqual(one) {
			return fmt.Errorf("%w: outcome %d price %s outside (0,1)", ErrMalformedMarket, i, o.Price)
		}
	}
	return nil
}
