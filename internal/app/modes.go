package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/basketbot/internal/arbitrage"
	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/executor"
	"github.com/alanyoungcy/basketbot/internal/scanner"
)

// ScanMode runs the discovery loop with the dry-run sink: baskets are
// detected, sized, and simulated, but nothing touches the venue or durable
// storage.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.newScanner(deps).RunLoop(ctx)
	})
	return ignoreCanceled(g.Wait())
}

// TradeMode runs the same loop against the configured sink, with trade
// records persisted to Postgres and the session log flushed to S3.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trade mode",
		slog.Bool("dry_run", a.cfg.Execution.DryRun),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.newScanner(deps).RunLoop(ctx)
	})
	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(ctx, a.cfg.S3.FlushInterval.Duration)
		})
	}
	return ignoreCanceled(g.Wait())
}

// newScanner assembles the per-cycle pipeline: normalizer, detector,
// planner, and coordinator, all sharing one session dedup set.
func (a *App) newScanner(deps *Dependencies) *scanner.Scanner {
	edgeCfg := domain.EdgeConfig{
		Buffer:  decimal.NewFromFloat(a.cfg.Edge.Buffer),
		MinEdge: decimal.NewFromFloat(a.cfg.Edge.MinEdge),
	}
	detector := arbitrage.NewDetector(edgeCfg, a.logger)
	planner := arbitrage.NewPlanner(
		decimal.NewFromFloat(a.cfg.Edge.TargetPayoutUSD),
		decimal.NewFromFloat(a.cfg.Edge.MinLegNotionalUSD),
	)

	opts := executor.Options{
		Store:    deps.Store,
		Notifier: deps.Notifier,
	}
	if deps.Archiver != nil {
		opts.Archiver = deps.Archiver
	}
	if deps.Guard != nil {
		opts.Guard = deps.Guard
		opts.GuardTolerance = decimal.NewFromFloat(a.cfg.Execution.PriceGuardTolerance)
	}
	coordinator := executor.NewCoordinator(planner, deps.Sink, executor.NewSessionDedup(), opts, a.logger)

	categories := make([]domain.Category, 0, len(a.cfg.Scanner.Categories))
	for _, c := range a.cfg.Scanner.Categories {
		categories = append(categories, domain.Category(c))
	}
	normalizer := scanner.NewNormalizer(categories, a.cfg.Scanner.MinLiquidityUSD, a.logger)

	return scanner.NewScanner(
		deps.Gamma,
		normalizer,
		detector,
		coordinator,
		deps.BasketCache,
		deps.RateLimiter,
		deps.Notifier,
		scanner.Config{
			PageSize:     a.cfg.Scanner.PageSize,
			MaxPages:     a.cfg.Scanner.MaxPages,
			PollInterval: a.cfg.Scanner.PollInterval.Duration,
			CacheTTL:     a.cfg.Redis.CacheTTL.Duration,
		},
		a.logger,
	)
}

// ignoreCanceled maps a context-cancel result onto a clean shutdown.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
