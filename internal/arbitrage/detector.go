// Package arbitrage holds the long-basket detection and sizing core: decide
// whether a basket's outcome prices admit an edge after buffers, and split a
// target notional across its legs.
package arbitrage

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

// edgeDisplayPlaces rounds edges in log output. Comparisons never use the
// rounded value.
const edgeDisplayPlaces = 4

// Detector decides whether a basket qualifies as a long-basket arbitrage.
// All threshold math runs on exact decimals; a price sum landing exactly on
// the threshold does not qualify.
type Detector struct {
	cfg    domain.EdgeConfig
	logger *slog.Logger
}

// NewDetector creates a Detector with the given thresholds.
func NewDetector(cfg domain.EdgeConfig, logger *slog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "detector")),
	}
}

// Evaluate computes the basket's price sum and reports whether buying every
// outcome locks in at least the minimum edge. The returned Opportunity is
// only meaningful when ok is true.
//
// Qualification: price_sum < 1 - buffer - min_edge, strict. A single-outcome
// basket never qualifies.
func (d *Detector) Evaluate(basket domain.Basket) (domain.Opportunity, bool) {
	if len(basket.Outcomes) < 2 {
		return domain.Opportunity{}, false
	}

	priceSum := basket.PriceSum()
	edge := decimal.NewFromInt(1).Sub(priceSum).Sub(d.cfg.Buffer)
	qualifies := priceSum.LessThan(d.cfg.Threshold())

	d.logger.Info("basket evaluated",
		slog.String("market_id", basket.MarketID),
		slog.String("slug", basket.Slug),
		slog.String("price_sum", priceSum.String()),
		slog.String("edge", edge.Round(edgeDisplayPlaces).String()),
		slog.Bool("qualifies", qualifies),
	)

	if !qualifies {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Basket:   basket,
		PriceSum: priceSum,
		Edge:     edge,
	}, true
}
