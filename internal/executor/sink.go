package executor

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

// OrderSink accepts one planned leg and returns the venue's answer. The
// coordinator's sequencing is identical whichever sink is injected; dry-run
// versus live is decided once at wiring time, not per call.
type OrderSink interface {
	// Submit sends one fill-or-kill market buy. quotedPrice is the outcome
	// price the plan was built against. A venue-level kill is a normal
	// OrderResult, not an error; errors mean the submission never reached a
	// venue decision.
	Submit(ctx context.Context, plan domain.OrderPlan, quotedPrice decimal.Decimal) (domain.OrderResult, error)

	// Name identifies the sink in logs ("dry_run", "clob").
	Name() string
}

// DryRunSink simulates fills locally. No network call is ever made: every
// leg fills at its quoted price for the full requested notional.
type DryRunSink struct{}

// NewDryRunSink creates a simulating sink.
func NewDryRunSink() *DryRunSink {
	return &DryRunSink{}
}

// Submit returns a simulated full fill at the quoted price.
func (s *DryRunSink) Submit(_ context.Context, plan domain.OrderPlan, quotedPrice decimal.Decimal) (domain.OrderResult, error) {
	return domain.OrderResult{
		Status:      domain.OrderSimulated,
		FilledUSD:   plan.NotionalUSD,
		FilledPrice: quotedPrice,
		Message:     "dry run",
	}, nil
}

// Name returns the sink identifier.
func (s *DryRunSink) Name() string { return "dry_run" }

// marketBuyer is the slice of the CLOB client the live sink needs.
type marketBuyer interface {
	PostMarketBuy(ctx context.Context, plan domain.OrderPlan, quotedPrice decimal.Decimal) (domain.OrderResult, error)
}

// ClobSink submits legs to the live CLOB API, waiting on the shared rate
// limiter before each submission.
type ClobSink struct {
	client  marketBuyer
	limiter domain.RateLimiter
}

// NewClobSink creates a live sink. limiter may be nil to submit unthrottled.
func NewClobSink(client marketBuyer, limiter domain.RateLimiter) *ClobSink {
	return &ClobSink{client: client, limiter: limiter}
}

// Submit rate-limits and forwards the leg to the CLOB client.
func (s *ClobSink) Submit(ctx context.Context, plan domain.OrderPlan, quotedPrice decimal.Decimal) (domain.OrderResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, "clob:order"); err != nil {
			return domain.OrderResult{}, &domain.TransportError{Op: "order rate limit wait", Err: err}
		}
	}
	return s.client.PostMarketBuy(ctx, plan, quotedPrice)
}

// Name returns the sink identifier.
func (s *ClobSink) Name() string { return "clob" }
