package scanner

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/basketbot/internal/domain"
	"github.com/alanyoungcy/basketbot/internal/platform/polymarket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func allCategories() []domain.Category {
	return []domain.Category{domain.CategorySports, domain.CategoryCrypto, domain.CategoryPolitics}
}

func rawMarket() *polymarket.GammaMarket {
	return &polymarket.GammaMarket{
		ID:            "mkt-1",
		Question:      "Who wins the series?",
		Slug:          "nba-finals-winner",
		Category:      "sports",
		Active:        true,
		Closed:        false,
		Liquidity:     50000,
		Outcomes:      `["Team A","Team B","Draw"]`,
		OutcomePrices: `["0.40","0.40","0.15"]`,
		ClobTokenIDs:  `["111","222","333"]`,
	}
}

func TestNormalizeValidMarket(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	basket, err := n.Normalize(rawMarket())
	require.NoError(t, err)

	assert.Equal(t, "mkt-1", basket.MarketID)
	assert.Equal(t, "nba-finals-winner", basket.Slug)
	assert.Equal(t, domain.CategorySports, basket.Category)
	require.Len(t, basket.Outcomes, 3)
	assert.Equal(t, "Team A", basket.Outcomes[0].Name)
	assert.Equal(t, "111", basket.Outcomes[0].TokenID)
	assert.True(t, basket.Outcomes[0].Price.Equal(decimalFromString(t, "0.40")))
	assert.True(t, basket.PriceSum().Equal(decimalFromString(t, "0.95")))
}

func TestNormalizeKeywordFallback(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	raw.Category = ""
	raw.Slug = "btc-above-100k-december"
	raw.Question = "Where does the price land?"

	basket, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryCrypto, basket.Category)
}

func TestNormalizeExplicitCategoryWinsOverKeywords(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	// Slug mentions an election but Gamma says sports.
	raw := rawMarket()
	raw.Category = "Sports"
	raw.Slug = "election-night-special"

	basket, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySports, basket.Category)
}

func TestNormalizeRejectsInactiveAndClosed(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	inactive := rawMarket()
	inactive.Active = false
	_, err := n.Normalize(inactive)
	assert.True(t, errors.Is(err, domain.ErrNotEligible))

	closed := rawMarket()
	closed.Closed = true
	_, err = n.Normalize(closed)
	assert.True(t, errors.Is(err, domain.ErrNotEligible))
}

func TestNormalizeRejectsUntrackedCategory(t *testing.T) {
	n := NewNormalizer([]domain.Category{domain.CategoryCrypto}, 1000, testLogger())

	_, err := n.Normalize(rawMarket())
	assert.True(t, errors.Is(err, domain.ErrNotEligible))
}

func TestNormalizeRejectsThinLiquidity(t *testing.T) {
	n := NewNormalizer(allCategories(), 100000, testLogger())

	_, err := n.Normalize(rawMarket())
	assert.True(t, errors.Is(err, domain.ErrNotEligible))
}

func TestNormalizeMalformedOutcomeList(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	raw.Outcomes = `not json`
	_, err := n.Normalize(raw)
	assert.True(t, errors.Is(err, domain.ErrMalformedMarket))
}

func TestNormalizeMismatchedListLengths(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	raw.OutcomePrices = `["0.40","0.40"]`
	_, err := n.Normalize(raw)
	assert.True(t, errors.Is(err, domain.ErrMalformedMarket))
}

func TestNormalizeRejectsPriceOutOfBounds(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	raw.OutcomePrices = `["0.40","0.40","1.00"]`
	_, err := n.Normalize(raw)
	assert.True(t, errors.Is(err, domain.ErrMalformedMarket))

	raw.OutcomePrices = `["0.40","0.40","0"]`
	_, err = n.Normalize(raw)
	assert.True(t, errors.Is(err, domain.ErrMalformedMarket))
}

func TestNormalizeRejectsUnparseablePrice(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	raw.OutcomePrices = `["0.40","0.40","abc"]`
	_, err := n.Normalize(raw)
	assert.True(t, errors.Is(err, domain.ErrMalformedMarket))
}

func TestNormalizeRejectsSingleOutcome(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	raw.Outcomes = `["Yes"]`
	raw.OutcomePrices = `["0.40"]`
	raw.ClobTokenIDs = `["111"]`
	_, err := n.Normalize(raw)
	assert.True(t, errors.Is(err, domain.ErrMalformedMarket))
}

func TestNormalizeIsPure(t *testing.T) {
	n := NewNormalizer(allCategories(), 1000, testLogger())

	raw := rawMarket()
	b1, err1 := n.Normalize(raw)
	b2, err2 := n.Normalize(raw)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, b1.MarketID, b2.MarketID)
	assert.Equal(t, b1.Category, b2.Category)
	assert.True(t, b1.PriceSum().Equal(b2.PriceSum()))
}
