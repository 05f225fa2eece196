package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexBool(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"True"`, true},
		{`"1"`, true},
		{`"false"`, false},
		{`"no"`, false},
	}
	for _, tc := range cases {
		var f flexBool
		require.NoError(t, json.Unmarshal([]byte(tc.raw), &f), tc.raw)
		assert.Equal(t, tc.want, bool(f), tc.raw)
	}
}

func TestFlexFloat(t *testing.T) {
	var f flexFloat
	require.NoError(t, json.Unmarshal([]byte(`12034.5`), &f))
	assert.InDelta(t, 12034.5, float64(f), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`"98.25"`), &f))
	assert.InDelta(t, 98.25, float64(f), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`""`), &f))
	assert.Zero(t, float64(f))

	require.Error(t, json.Unmarshal([]byte(`"abc"`), &f))
}

func TestGammaMarketParseHelpers(t *testing.T) {
	raw := `{
		"id": "512345",
		"question": "Who wins the match?",
		"slug": "who-wins-the-match",
		"category": "Sports",
		"active": "true",
		"closed": false,
		"liquidityNum": 81234.5,
		"outcomes": "[\"Team A\",\"Team B\",\"Draw\"]",
		"outcomePrices": "[\"0.40\",\"0.40\",\"0.15\"]",
		"clobTokenIds": "[\"111\",\"222\",\"333\"]"
	}`

	var m GammaMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, "512345", m.ID)
	assert.True(t, bool(m.Active))
	assert.False(t, bool(m.Closed))
	assert.InDelta(t, 81234.5, float64(m.Liquidity), 1e-9)

	outcomes, err := m.ParseOutcomes()
	require.NoError(t, err)
	assert.Equal(t, []string{"Team A", "Team B", "Draw"}, outcomes)

	prices, err := m.ParsePrices()
	require.NoError(t, err)
	assert.Equal(t, []string{"0.40", "0.40", "0.15"}, prices)

	tokens, err := m.ParseTokenIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, tokens)
}

func TestGammaMarketParseMalformedList(t *testing.T) {
	m := GammaMarket{Outcomes: `not json`}
	_, err := m.ParseOutcomes()
	require.Error(t, err)

	// Empty fields decode to nil, not an error.
	m = GammaMarket{}
	outcomes, err := m.ParseOutcomes()
	require.NoError(t, err)
	assert.Nil(t, outcomes)
}

func TestDecodeMarketListBothShapes(t *testing.T) {
	bare := `[{"id":"1"},{"id":"2"}]`
	markets, err := decodeMarketList([]byte(bare))
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "1", markets[0].ID)

	wrapped := `{"markets":[{"id":"3"}]}`
	markets, err = decodeMarketList([]byte(wrapped))
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "3", markets[0].ID)
}

func TestBookMessageBestAsk(t *testing.T) {
	b := BookMessage{
		Asks: []WSPriceLevel{
			{Price: "0.44", Size: "100"},
			{Price: "0.41", Size: "50"},
			{Price: "bad", Size: "10"},
		},
	}
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.InDelta(t, 0.41, ask, 1e-9)

	empty := BookMessage{}
	_, ok = empty.BestAsk()
	assert.False(t, ok)
}

func TestDecodeBookFrames(t *testing.T) {
	batch := `[
		{"event_type":"book","asset_id":"111","asks":[{"price":"0.5","size":"1"}]},
		{"event_type":"price_change","asset_id":"222"}
	]`
	books := decodeBookFrames([]byte(batch))
	require.Len(t, books, 1)
	assert.Equal(t, "111", books[0].AssetID)

	single := `{"event_type":"book","asset_id":"333","asks":[]}`
	books = decodeBookFrames([]byte(single))
	require.Len(t, books, 1)
	assert.Equal(t, "333", books[0].AssetID)

	assert.Empty(t, decodeBookFrames([]byte(`garbage`)))
}
