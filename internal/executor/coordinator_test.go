package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/basketbot/internal/arbitrage"
	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOpp(prices ...string) domain.Opportunity {
	b := domain.Basket{
		MarketID: "mkt-1",
		Slug:     "test-market",
		Category: domain.CategorySports,
	}
	for i, p := range prices {
		b.Outcomes = append(b.Outcomes, domain.Outcome{
			Name:    fmt.Sprintf("outcome-%d", i),
			Price:   dec(p),
			TokenID: fmt.Sprintf("tok-%d", i),
		})
	}
	sum := b.PriceSum()
	return domain.Opportunity{
		Basket:   b,
		PriceSum: sum,
		Edge:     decimal.NewFromInt(1).Sub(sum).Sub(dec("0.03")),
	}
}

func testPlanner() *arbitrage.Planner {
	return arbitrage.NewPlanner(dec("30"), dec("1"))
}

// countingSink wraps another sink and records every submission it sees.
type countingSink struct {
	inner OrderSink
	plans []domain.OrderPlan
}

func (s *countingSink) Submit(ctx context.Context, plan domain.OrderPlan, quoted decimal.Decimal) (domain.OrderResult, error) {
	s.plans = append(s.plans, plan)
	return s.inner.Submit(ctx, plan, quoted)
}

func (s *countingSink) Name() string { return s.inner.Name() }

// scriptedSink returns a pre-arranged outcome per leg, in call order.
type scriptedSink struct {
	results []domain.OrderResult
	errs    []error
	calls   int
}

func (s *scriptedSink) Submit(_ context.Context, _ domain.OrderPlan, _ decimal.Decimal) (domain.OrderResult, error) {
	i := s.calls
	s.calls++
	if s.errs != nil && s.errs[i] != nil {
		return domain.OrderResult{}, s.errs[i]
	}
	return s.results[i], nil
}

func (s *scriptedSink) Name() string { return "clob" }

type memoryStore struct {
	created []*domain.TradeRecord
}

func (m *memoryStore) Create(_ context.Context, r *domain.TradeRecord) error {
	m.created = append(m.created, r)
	return nil
}

func (m *memoryStore) GetByID(context.Context, string) (*domain.TradeRecord, error) {
	return nil, domain.ErrNotFound
}

func (m *memoryStore) ListRecent(context.Context, int) ([]*domain.TradeRecord, error) {
	return m.created, nil
}

type memoryNotifier struct {
	events []string
}

func (m *memoryNotifier) Notify(_ context.Context, event, _, _ string) error {
	m.events = append(m.events, event)
	return nil
}

func TestExecuteDryRunMakesNoNetworkCall(t *testing.T) {
	sink := &countingSink{inner: NewDryRunSink()}
	dedup := NewSessionDedup()
	c := NewCoordinator(testPlanner(), sink, dedup, Options{}, testLogger())

	state, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	assert.Equal(t, StateSettled, state)
	require.NotNil(t, record)

	// Every leg was routed to the simulating sink and filled at its quote.
	require.Len(t, sink.plans, 3)
	assert.True(t, record.DryRun)
	assert.Equal(t, domain.TradeSettled, record.Status)
	require.Len(t, record.Legs, 3)
	quotes := []string{"0.40", "0.40", "0.15"}
	for i, leg := range record.Legs {
		assert.Equal(t, domain.LegSimulated, leg.Status)
		assert.True(t, leg.FilledUSD.Equal(dec("10")), "leg %d: %s", i, leg.FilledUSD)
		assert.True(t, leg.FilledPrice.Equal(dec(quotes[i])), "leg %d: %s", i, leg.FilledPrice)
	}

	// Dry-run settlement marks dedup exactly like a live one.
	assert.True(t, dedup.Contains("mkt-1"))
}

func TestExecuteSkipsDuplicateBeforePlanning(t *testing.T) {
	sink := &countingSink{inner: NewDryRunSink()}
	dedup := NewSessionDedup()
	dedup.Mark("mkt-1")
	c := NewCoordinator(testPlanner(), sink, dedup, Options{}, testLogger())

	state, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, state)
	assert.Nil(t, record)
	assert.Empty(t, sink.plans)
}

func TestExecuteSkipsBasketBelowMinimumNotional(t *testing.T) {
	// 30 / 3 = 10 per leg, below the 15 USD floor: whole basket skipped.
	planner := arbitrage.NewPlanner(dec("30"), dec("15"))
	sink := &countingSink{inner: NewDryRunSink()}
	dedup := NewSessionDedup()
	c := NewCoordinator(planner, sink, dedup, Options{}, testLogger())

	state, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, state)
	assert.Nil(t, record)
	assert.Empty(t, sink.plans)

	// Sizing skips never consume the dedup slot.
	assert.False(t, dedup.Contains("mkt-1"))
}

func TestExecuteContinuesAfterVenueRejection(t *testing.T) {
	// Leg 2 of 3 gets killed by the venue. Legs 1 and 3 still run, the
	// basket settles, and dedup is marked despite the partial outcome.
	sink := &scriptedSink{
		results: []domain.OrderResult{
			{Status: domain.OrderFilled, OrderID: "o1", FilledUSD: dec("10"), FilledPrice: dec("0.40")},
			{Status: domain.OrderRejected, Message: "order killed: insufficient liquidity"},
			{Status: domain.OrderFilled, OrderID: "o3", FilledUSD: dec("10"), FilledPrice: dec("0.15")},
		},
	}
	dedup := NewSessionDedup()
	notifier := &memoryNotifier{}
	store := &memoryStore{}
	c := NewCoordinator(testPlanner(), sink, dedup, Options{Store: store, Notifier: notifier}, testLogger())

	state, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	assert.Equal(t, StateSettled, state)
	require.NotNil(t, record)
	assert.Equal(t, 3, sink.calls)

	assert.Equal(t, domain.TradeSettled, record.Status)
	assert.False(t, record.DryRun)
	require.Len(t, record.Legs, 3)
	assert.Equal(t, domain.LegFilled, record.Legs[0].Status)
	assert.Equal(t, domain.LegRejected, record.Legs[1].Status)
	assert.Equal(t, domain.LegFilled, record.Legs[2].Status)
	assert.Equal(t, 2, record.FilledLegs())

	// Settled always marks dedup, even with a rejected leg in the mix.
	assert.True(t, dedup.Contains("mkt-1"))
	require.Len(t, store.created, 1)
	assert.Contains(t, notifier.events, notify.EventLegRejected)
	assert.Contains(t, notifier.events, notify.EventBasketExecuted)
}

func TestExecuteTransportErrorLeavesBasketRetryable(t *testing.T) {
	transportErr := &domain.TransportError{Op: "post order", Err: errors.New("connection refused")}
	sink := &scriptedSink{
		results: []domain.OrderResult{
			{Status: domain.OrderFilled, OrderID: "o1", FilledUSD: dec("10"), FilledPrice: dec("0.40")},
			{},
			{},
		},
		errs: []error{nil, transportErr, nil},
	}
	dedup := NewSessionDedup()
	c := NewCoordinator(testPlanner(), sink, dedup, Options{}, testLogger())

	state, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
	assert.Equal(t, StateFailed, state)
	require.NotNil(t, record)
	assert.Equal(t, domain.TradeFailed, record.Status)

	// Submission stops at the failing leg; leg 3 is never attempted.
	assert.Equal(t, 2, sink.calls)
	require.Len(t, record.Legs, 3)
	assert.Equal(t, domain.LegFilled, record.Legs[0].Status)
	assert.Equal(t, domain.LegError, record.Legs[1].Status)
	assert.Equal(t, domain.LegError, record.Legs[2].Status)

	// The market stays unmarked so the next cycle can retry it.
	assert.False(t, dedup.Contains("mkt-1"))

	// A retry after transport recovery runs the full basket again.
	sink2 := &countingSink{inner: NewDryRunSink()}
	c2 := NewCoordinator(testPlanner(), sink2, dedup, Options{}, testLogger())
	state2, _, err2 := c2.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err2)
	assert.Equal(t, StateSettled, state2)
	assert.Len(t, sink2.plans, 3)
}

func TestExecuteLegsNeverPartiallyFill(t *testing.T) {
	// FOK semantics: each leg is either fully filled for its requested
	// notional or not filled at all.
	sink := &scriptedSink{
		results: []domain.OrderResult{
			{Status: domain.OrderFilled, FilledUSD: dec("10"), FilledPrice: dec("0.40")},
			{Status: domain.OrderRejected, Message: "killed"},
			{Status: domain.OrderFilled, FilledUSD: dec("10"), FilledPrice: dec("0.15")},
		},
	}
	c := NewCoordinator(testPlanner(), sink, NewSessionDedup(), Options{}, testLogger())

	_, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	for _, leg := range record.Legs {
		if leg.Status == domain.LegFilled {
			assert.True(t, leg.FilledUSD.Equal(leg.RequestedUSD))
		} else {
			assert.True(t, leg.FilledUSD.IsZero())
		}
	}
}

type fixedGuard struct {
	asks map[string]float64
	err  error
}

func (g *fixedGuard) BestAsks(context.Context, []string) (map[string]float64, error) {
	return g.asks, g.err
}

func TestExecutePriceGuardSkipsDriftedBasket(t *testing.T) {
	guard := &fixedGuard{asks: map[string]float64{
		"tok-0": 0.40,
		"tok-1": 0.55, // quoted 0.40, drifted past tolerance
		"tok-2": 0.15,
	}}
	sink := &countingSink{inner: NewDryRunSink()}
	dedup := NewSessionDedup()
	c := NewCoordinator(testPlanner(), sink, dedup, Options{
		Guard:          guard,
		GuardTolerance: dec("0.01"),
	}, testLogger())

	state, record, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	assert.Equal(t, StateSkipped, state)
	assert.Nil(t, record)
	assert.Empty(t, sink.plans)

	// Drift skips leave the market eligible for a fresh quote next cycle.
	assert.False(t, dedup.Contains("mkt-1"))
}

func TestExecutePriceGuardFailureDoesNotBlock(t *testing.T) {
	guard := &fixedGuard{err: &domain.TransportError{Op: "ws dial", Err: errors.New("timeout")}}
	sink := &countingSink{inner: NewDryRunSink()}
	c := NewCoordinator(testPlanner(), sink, NewSessionDedup(), Options{
		Guard:          guard,
		GuardTolerance: dec("0.01"),
	}, testLogger())

	state, _, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)
	assert.Equal(t, StateSettled, state)
	assert.Len(t, sink.plans, 3)
}

func TestRecordsReturnsCopy(t *testing.T) {
	c := NewCoordinator(testPlanner(), NewDryRunSink(), NewSessionDedup(), Options{}, testLogger())

	_, _, err := c.Execute(context.Background(), testOpp("0.40", "0.40", "0.15"))
	require.NoError(t, err)

	records := c.Records()
	require.Len(t, records, 1)
	records[0].MarketID = "mutated"
	assert.Equal(t, "mkt-1", c.Records()[0].MarketID)
}
