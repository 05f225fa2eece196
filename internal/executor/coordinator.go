// Package executor sequences order submission for qualifying baskets and
// owns the session's dedup state and trade log.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/notify"
)

// State is the coordinator's position in the per-basket lifecycle.
// Settled, Skipped, and Failed are terminal.
type State string

const (
	StateIdle       State = "idle"
	StatePlanning   State = "planning"
	StateSubmitting State = "submitting"
	StateSettled    State = "settled"
	StateSkipped    State = "skipped"
	StateFailed     State = "failed"
)

// legPlanner turns a qualifying opportunity into per-outcome order plans.
type legPlanner interface {
	Plan(opp domain.Opportunity) ([]domain.OrderPlan, error)
}

// priceGuard samples live best asks for the basket's tokens before
// submission.
type priceGuard interface {
	BestAsks(ctx context.Context, tokenIDs []string) (map[string]float64, error)
}

// eventNotifier fans execution events out to operator channels.
type eventNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Options carries the coordinator's optional collaborators. Nil fields
// disable the corresponding side effect.
type Options struct {
	Store    domain.TradeRecordStore
	Archiver domain.TradeArchiver
	Notifier eventNotifier

	// Guard, when set, probes live books before submission and skips the
	// basket if any ask drifted above quote + GuardTolerance.
	Guard          priceGuard
	GuardTolerance decimal.Decimal
}

// Coordinator walks one basket at a time through
// Idle -> Planning -> Submitting -> Settled, with Skipped and Failed as
// terminal off-paths. It exclusively owns the SessionDedup set and the
// run's trade records; both are only touched from Execute.
type Coordinator struct {
	planner legPlanner
	sink    OrderSink
	dedup   *SessionDedup
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	records []domain.TradeRecord
}

// NewCoordinator creates a Coordinator submitting through the given sink.
func NewCoordinator(planner legPlanner, sink OrderSink, dedup *SessionDedup, opts Options, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		planner: planner,
		sink:    sink,
		dedup:   dedup,
		opts:    opts,
		logger:  logger.With(slog.String("component", "coordinator")),
	}
}

// Execute runs one qualifying opportunity to a terminal state.
//
// Dedup: a market already marked is Skipped before planning. A Settled
// basket is always marked, whatever the per-leg fill mix, so the session
// never re-attempts it. A Failed basket (transport error) is NOT marked and
// stays eligible for a later cycle.
func (c *Coordinator) Execute(ctx context.Context, opp domain.Opportunity) (State, *domain.TradeRecord, error) {
	basket := opp.Basket

	if c.dedup.Contains(basket.MarketID) {
		c.logger.DebugContext(ctx, "basket skipped: already executed this session",
			slog.String("market_id", basket.MarketID),
		)
		return StateSkipped, nil, nil
	}

	// Planning.
	plans, err := c.planner.Plan(opp)
	if err != nil {
		if errors.Is(err, domain.ErrBelowMinNotional) {
			c.logger.DebugContext(ctx, "basket skipped: legs below minimum notional",
				slog.String("market_id", basket.MarketID),
				slog.String("error", err.Error()),
			)
			return StateSkipped, nil, nil
		}
		return StateSkipped, nil, fmt.Errorf("executor: plan basket %s: %w", basket.MarketID, err)
	}

	// Optional staleness guard before touching the venue.
	if c.opts.Guard != nil {
		if stale := c.pricesDrifted(ctx, basket); stale {
			return StateSkipped, nil, nil
		}
	}

	// Submitting: strictly in basket outcome order, one leg at a time.
	record := domain.TradeRecord{
		ID:         uuid.NewString(),
		MarketID:   basket.MarketID,
		Slug:       basket.Slug,
		PriceSum:   opp.PriceSum,
		Edge:       opp.Edge,
		DryRun:     c.sink.Name() == "dry_run",
		Legs:       make([]domain.TradeLeg, 0, len(plans)),
		ExecutedAt: time.Now().UTC(),
	}

	for i, plan := range plans {
		quoted := basket.Outcomes[i].Price

		result, err := c.sink.Submit(ctx, plan, quoted)
		if err != nil {
			// Transport failure: the venue never decided. Stop here, leave
			// the basket unmarked so a later cycle can retry. Legs already
			// filled stay filled; there is no unwind.
			record.Legs = append(record.Legs, domain.TradeLeg{
				TokenID:      plan.TokenID,
				Outcome:      plan.Outcome,
				RequestedUSD: plan.NotionalUSD,
				Status:       domain.LegError,
				Message:      err.Error(),
			})
			for _, rest := range plans[i+1:] {
				record.Legs = append(record.Legs, domain.TradeLeg{
					TokenID:      rest.TokenID,
					Outcome:      rest.Outcome,
					RequestedUSD: rest.NotionalUSD,
					Status:       domain.LegError,
					Message:      "not attempted: prior leg transport failure",
				})
			}
			record.Status = domain.TradeFailed
			c.appendRecord(ctx, record)

			c.logger.ErrorContext(ctx, "basket execution failed on transport",
				slog.String("market_id", basket.MarketID),
				slog.Int("leg", i+1),
				slog.String("error", err.Error()),
			)
			return StateFailed, &record, err
		}

		leg := domain.TradeLeg{
			TokenID:      plan.TokenID,
			Outcome:      plan.Outcome,
			RequestedUSD: plan.NotionalUSD,
			Status:       legStatus(result.Status),
			Message:      result.Message,
		}
		if leg.Status == domain.LegFilled || leg.Status == domain.LegSimulated {
			leg.FilledUSD = result.FilledUSD
			leg.FilledPrice = result.FilledPrice
		}
		record.Legs = append(record.Legs, leg)

		c.logger.InfoContext(ctx, "leg submitted",
			slog.String("market_id", basket.MarketID),
			slog.String("token_id", plan.TokenID),
			slog.String("requested_usd", plan.NotionalUSD.String()),
			slog.String("status", string(leg.Status)),
			slog.String("sink", c.sink.Name()),
		)

		if leg.Status == domain.LegRejected && c.opts.Notifier != nil {
			_ = c.opts.Notifier.Notify(ctx, notify.EventLegRejected,
				"Basket leg rejected",
				fmt.Sprintf("%s leg %d/%d (%s): %s", basket.Slug, i+1, len(plans), plan.Outcome, result.Message),
			)
		}
	}

	// Settled: every leg got a venue decision. Mark dedup regardless of the
	// fill mix so the session never re-attempts a partially-filled basket.
	record.Status = domain.TradeSettled
	c.dedup.Mark(basket.MarketID)
	c.appendRecord(ctx, record)

	c.logger.InfoContext(ctx, "basket settled",
		slog.String("market_id", basket.MarketID),
		slog.String("slug", basket.Slug),
		slog.String("edge", opp.Edge.String()),
		slog.Int("legs_filled", record.FilledLegs()),
		slog.Int("legs_total", len(record.Legs)),
		slog.Bool("dry_run", record.DryRun),
	)

	if c.opts.Notifier != nil {
		_ = c.opts.Notifier.Notify(ctx, notify.EventBasketExecuted,
			"Basket executed",
			fmt.Sprintf("%s: %d/%d legs filled, edge %s, dry_run=%v",
				basket.Slug, record.FilledLegs(), len(record.Legs), opp.Edge.Round(4), record.DryRun),
		)
	}

	return StateSettled, &record, nil
}

// Records returns a copy of the session's trade records.
func (c *Coordinator) Records() []domain.TradeRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.TradeRecord, len(c.records))
	copy(out, c.records)
	return out
}

// pricesDrifted probes live best asks and reports whether any leg's book
// moved above its quote by more than the tolerance. Guard failures degrade
// to a warning; only a confirmed drift blocks submission.
func (c *Coordinator) pricesDrifted(ctx context.Context, basket domain.Basket) bool {
	asks, err := c.opts.Guard.BestAsks(ctx, basket.TokenIDs())
	if err != nil {
		c.logger.WarnContext(ctx, "price guard unavailable, proceeding",
			slog.String("market_id", basket.MarketID),
			slog.String("error", err.Error()),
		)
		return false
	}

	for _, outcome := range basket.Outcomes {
		ask, ok := asks[outcome.TokenID]
		if !ok {
			continue
		}
		limit := outcome.Price.Add(c.opts.GuardTolerance)
		if decimal.NewFromFloat(ask).GreaterThan(limit) {
			c.logger.WarnContext(ctx, "basket skipped: book drifted from quote",
				slog.String("market_id", basket.MarketID),
				slog.String("token_id", outcome.TokenID),
				slog.String("quoted", outcome.Price.String()),
				slog.Float64("best_ask", ask),
				slog.String("error", domain.ErrStalePrices.Error()),
			)
			return true
		}
	}
	return false
}

// appendRecord adds the record to the session log and forwards it to the
// optional store and archiver. Persistence failures are logged, never fatal.
func (c *Coordinator) appendRecord(ctx context.Context, record domain.TradeRecord) {
	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()

	if c.opts.Store != nil {
		if err := c.opts.Store.Create(ctx, &record); err != nil {
			c.logger.ErrorContext(ctx, "trade record store write failed",
				slog.String("record_id", record.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if c.opts.Archiver != nil {
		c.opts.Archiver.Record(&record)
	}
}

// legStatus maps a venue order result onto the trade-leg status.
func legStatus(s domain.OrderResultStatus) domain.LegStatus {
	switch s {
	case domain.OrderFilled:
		return domain.LegFilled
	case domain.OrderSimulated:
		return domain.LegSimulated
	default:
		return domain.LegRejected
	}
}
