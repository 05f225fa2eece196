package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/executor"
	"github.com/alanyoungcy/basketbot/internal/notify"
	"github.com/alanyoungcy/basketbot/internal/platform/polymarket"
)

// marketLister is the slice of the Gamma client the scanner needs.
type marketLister interface {
	ListActiveMarkets(ctx context.Context, limit, offset int) ([]polymarket.GammaMarket, error)
}

// edgeEvaluator decides whether a basket qualifies.
type edgeEvaluator interface {
	Evaluate(basket domain.Basket) (domain.Opportunity, bool)
}

// basketExecutor runs one qualifying opportunity to a terminal state.
type basketExecutor interface {
	Execute(ctx context.Context, opp domain.Opportunity) (executor.State, *domain.TradeRecord, error)
}

// cycleNotifier reports scan-level failures to operator channels.
type cycleNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// CycleStats summarizes one full pass over the Gamma market listing.
type CycleStats struct {
	Pages      int
	Scanned    int
	Malformed  int
	Ineligible int
	Qualified  int
	Settled    int
	Skipped    int
	Failed     int
}

// Config holds the scanner's pagination and cadence settings.
type Config struct {
	PageSize     int
	MaxPages     int
	PollInterval time.Duration
	CacheTTL     time.Duration
}

// Scanner drives the discovery loop: page through Gamma, normalize each
// record, evaluate the edge, and hand qualifying baskets to the executor one
// at a time. Cycles are single-threaded; the venue decides order acceptance,
// not a race between our own goroutines.
type Scanner struct {
	lister     marketLister
	normalizer *Normalizer
	detector   edgeEvaluator
	exec       basketExecutor
	cache      domain.BasketCache
	limiter    domain.RateLimiter
	notifier   cycleNotifier
	cfg        Config
	logger     *slog.Logger
}

// NewScanner creates a Scanner. cache, limiter, and notifier may be nil.
func NewScanner(
	lister marketLister,
	normalizer *Normalizer,
	detector edgeEvaluator,
	exec basketExecutor,
	cache domain.BasketCache,
	limiter domain.RateLimiter,
	notifier cycleNotifier,
	cfg Config,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		lister:     lister,
		normalizer: normalizer,
		detector:   detector,
		exec:       exec,
		cache:      cache,
		limiter:    limiter,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "scanner")),
	}
}

// ScanCycle runs one full pass: pages are fetched until a short page or the
// page cap, and every market on every page is processed. A transport failure
// aborts the rest of the cycle; work already done in the cycle stands.
func (s *Scanner) ScanCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	for page := 0; page < s.cfg.MaxPages; page++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, "gamma:markets"); err != nil {
				return stats, fmt.Errorf("scanner: rate limit wait: %w", err)
			}
		}

		offset := page * s.cfg.PageSize
		markets, err := s.lister.ListActiveMarkets(ctx, s.cfg.PageSize, offset)
		if err != nil {
			return stats, fmt.Errorf("scanner: fetch page %d: %w", page, err)
		}
		stats.Pages++

		for i := range markets {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			s.processMarket(ctx, &markets[i], &stats)
		}

		if len(markets) < s.cfg.PageSize {
			break
		}
	}

	s.logger.InfoContext(ctx, "scan cycle complete",
		slog.Int("pages", stats.Pages),
		slog.Int("scanned", stats.Scanned),
		slog.Int("malformed", stats.Malformed),
		slog.Int("ineligible", stats.Ineligible),
		slog.Int("qualified", stats.Qualified),
		slog.Int("settled", stats.Settled),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
	)
	return stats, nil
}

// processMarket normalizes, evaluates, and (when qualifying) executes one
// raw market record. Per-market failures never abort the cycle.
func (s *Scanner) processMarket(ctx context.Context, raw *polymarket.GammaMarket, stats *CycleStats) {
	stats.Scanned++

	basket, err := s.normalizer.Normalize(raw)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMalformedMarket):
			stats.Malformed++
			s.logger.WarnContext(ctx, "malformed market skipped",
				slog.String("market_id", raw.ID),
				slog.String("error", err.Error()),
			)
		case errors.Is(err, domain.ErrNotEligible):
			stats.Ineligible++
		default:
			stats.Malformed++
			s.logger.WarnContext(ctx, "market skipped",
				slog.String("market_id", raw.ID),
				slog.String("error", err.Error()),
			)
		}
		return
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, &basket, s.cfg.CacheTTL); err != nil {
			s.logger.WarnContext(ctx, "basket cache write failed",
				slog.String("market_id", basket.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}

	opp, ok := s.detector.Evaluate(basket)
	if !ok {
		return
	}
	stats.Qualified++

	state, _, err := s.exec.Execute(ctx, opp)
	if state != executor.StateSkipped && s.notifier != nil {
		_ = s.notifier.Notify(ctx, notify.EventArbDetected, "Arbitrage detected",
			fmt.Sprintf("%s: price sum %s, edge %s", basket.Slug, opp.PriceSum, opp.Edge.Round(4)))
	}
	switch state {
	case executor.StateSettled:
		stats.Settled++
	case executor.StateFailed:
		stats.Failed++
		s.logger.ErrorContext(ctx, "basket execution failed",
			slog.String("market_id", basket.MarketID),
			slog.String("error", err.Error()),
		)
	default:
		stats.Skipped++
	}
}

// RunLoop runs scan cycles at the configured interval until the context is
// canceled. The first cycle starts immediately. A failed cycle is reported
// and the loop keeps going; transport blips must not kill the session.
func (s *Scanner) RunLoop(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scanner) runOnce(ctx context.Context) {
	if _, err := s.ScanCycle(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.ErrorContext(ctx, "scan cycle failed",
			slog.String("error", err.Error()),
		)
		if s.notifier != nil {
			_ = s.notifier.Notify(ctx, notify.EventCycleError, "Scan cycle failed", err.Error())
		}
	}
}
