package arbitrage

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

// centPlaces truncates leg notionals to whole cents, the venue's order-size
// granularity for USD amounts.
const centPlaces = 2

// Planner splits a target total notional equally across a qualifying
// basket's outcomes.
type Planner struct {
	targetPayoutUSD   decimal.Decimal
	minLegNotionalUSD decimal.Decimal
}

// NewPlanner creates a Planner. targetPayoutUSD is the total spend per
// basket; minLegNotionalUSD is the smallest leg the venue will take.
func NewPlanner(targetPayoutUSD, minLegNotionalUSD decimal.Decimal) *Planner {
	return &Planner{
		targetPayoutUSD:   targetPayoutUSD,
		minLegNotionalUSD: minLegNotionalUSD,
	}
}

// Plan returns one fill-or-kill market-buy plan per outcome, each for
// target/outcome_count USD truncated to cents, in basket outcome order.
// If the per-leg notional falls below the venue minimum, the whole basket
// is skipped: sizing is all legs or none.
func (p *Planner) Plan(opp domain.Opportunity) ([]domain.OrderPlan, error) {
	basket := opp.Basket
	n := len(basket.Outcomes)
	if n < 2 {
		return nil, fmt.Errorf("arbitrage/planner: %w: %d outcome(s)", domain.ErrMalformedMarket, n)
	}

	perLeg := p.targetPayoutUSD.
		Div(decimal.NewFromInt(int64(n))).
		Truncate(centPlaces)

	if perLeg.LessThan(p.minLegNotionalUSD) {
		return nil, fmt.Errorf("arbitrage/planner: %w: %s per leg, minimum %s",
			domain.ErrBelowMinNotional, perLeg, p.minLegNotionalUSD)
	}

	plans := make([]domain.OrderPlan, n)
	for i, outcome := range basket.Outcomes {
		plans[i] = domain.OrderPlan{
			MarketID:    basket.MarketID,
			TokenID:     outcome.TokenID,
			Outcome:     outcome.Name,
			Side:        domain.OrderSideBuy,
			Type:        domain.OrderTypeFOK,
			NotionalUSD: perLeg,
		}
	}
	return plans, nil
}
