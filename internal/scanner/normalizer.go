// Package scanner discovers candidate baskets from the Gamma API and
// normalizes raw market records into the domain model.
package scanner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/platform/polymarket"
)

// categoryKeywords classifies markets whose Gamma category field is empty or
// unrecognized. Matched against the slug and question, lowercased. Order is
// the tie-break when a market mentions keywords from several categories.
var categoryKeywords = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategorySports, []string{"nba", "nfl", "soccer", "mlb"}},
	{domain.CategoryCrypto, []string{"bitcoin", "btc", "eth", "solana"}},
	{domain.CategoryPolitics, []string{"election", "primary", "senate", "president"}},
}

func knownCategory(c domain.Category) bool {
	for _, entry := range categoryKeywords {
		if entry.category == c {
			return true
		}
	}
	return false
}

// Normalizer turns raw Gamma market records into validated baskets. Failures
// split into two classes: structural problems wrap ErrMalformedMarket (the
// record is broken), eligibility misses wrap ErrNotEligible (the record is
// fine but out of scope for this session's filters). Both mean "skip this
// market"; only the former is worth a warning.
type Normalizer struct {
	categories   map[domain.Category]struct{}
	minLiquidity float64
	logger       *slog.Logger
}

// NewNormalizer creates a Normalizer admitting only the given categories and
// markets with at least minLiquidityUSD of book liquidity. An empty category
// list admits every category.
func NewNormalizer(categories []domain.Category, minLiquidityUSD float64, logger *slog.Logger) *Normalizer {
	set := make(map[domain.Category]struct{}, len(categories))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	return &Normalizer{
		categories:   set,
		minLiquidity: minLiquidityUSD,
		logger:       logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize converts one raw Gamma record into a Basket. Normalization is
// pure: the same record always yields the same basket or the same error.
func (n *Normalizer) Normalize(raw *polymarket.GammaMarket) (domain.Basket, error) {
	if raw.ID == "" {
		return domain.Basket{}, fmt.Errorf("%w: record has no id", domain.ErrMalformedMarket)
	}
	if !bool(raw.Active) || bool(raw.Closed) {
		return domain.Basket{}, fmt.Errorf("%w: market %s not open for trading", domain.ErrNotEligible, raw.ID)
	}

	category, ok := n.classify(raw)
	if !ok {
		return domain.Basket{}, fmt.Errorf("%w: market %s matches no tracked category", domain.ErrNotEligible, raw.ID)
	}
	if float64(raw.Liquidity) < n.minLiquidity {
		return domain.Basket{}, fmt.Errorf("%w: market %s liquidity %.2f below floor %.2f",
			domain.ErrNotEligible, raw.ID, float64(raw.Liquidity), n.minLiquidity)
	}

	names, err := raw.ParseOutcomes()
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%w: market %s: %v", domain.ErrMalformedMarket, raw.ID, err)
	}
	prices, err := raw.ParsePrices()
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%w: market %s: %v", domain.ErrMalformedMarket, raw.ID, err)
	}
	tokenIDs, err := raw.ParseTokenIDs()
	if err != nil {
		return domain.Basket{}, fmt.Errorf("%w: market %s: %v", domain.ErrMalformedMarket, raw.ID, err)
	}
	if len(names) != len(prices) || len(names) != len(tokenIDs) {
		return domain.Basket{}, fmt.Errorf("%w: market %s: %d outcomes, %d prices, %d token ids",
			domain.ErrMalformedMarket, raw.ID, len(names), len(prices), len(tokenIDs))
	}

	basket := domain.Basket{
		MarketID:     raw.ID,
		Slug:         raw.Slug,
		Question:     raw.Question,
		Category:     category,
		Outcomes:     make([]domain.Outcome, 0, len(names)),
		LiquidityUSD: float64(raw.Liquidity),
		Active:       bool(raw.Active),
		Closed:       bool(raw.Closed),
	}
	for i, name := range names {
		price, err := decimal.NewFromString(prices[i])
		if err != nil {
			return domain.Basket{}, fmt.Errorf("%w: market %s: outcome %d price %q",
				domain.ErrMalformedMarket, raw.ID, i, prices[i])
		}
		basket.Outcomes = append(basket.Outcomes, domain.Outcome{
			Name:    name,
			Price:   price,
			TokenID: tokenIDs[i],
		})
	}

	if err := basket.Validate(); err != nil {
		return domain.Basket{}, err
	}
	return basket, nil
}

// classify resolves the market's category: the explicit Gamma category field
// wins, keyword matching on slug and question is the fallback. ok is false
// when the market belongs to none of the tracked categories.
func (n *Normalizer) classify(raw *polymarket.GammaMarket) (domain.Category, bool) {
	if explicit := domain.Category(strings.ToLower(raw.Category)); explicit != "" {
		if n.admits(explicit) {
			return explicit, true
		}
		if knownCategory(explicit) {
			// Recognized category but not one this session tracks.
			return "", false
		}
	}

	haystack := strings.ToLower(raw.Slug + " " + raw.Question)
	for _, entry := range categoryKeywords {
		if !n.admits(entry.category) {
			continue
		}
		for _, kw := range entry.keywords {
			if strings.Contains(haystack, kw) {
				return entry.category, true
			}
		}
	}
	return "", false
}

func (n *Normalizer) admits(c domain.Category) bool {
	if len(n.categories) == 0 {
		return knownCategory(c)
	}
	_, ok := n.categories[c]
	return ok
}
