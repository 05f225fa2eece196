package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from JSON number or string-encoded number. Gamma
// switches between the two across fields and API revisions.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(n)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// GammaMarket represents a market as returned by the Polymarket Gamma API.
// The outcome, price, and token-ID lists arrive as JSON-encoded strings
// (e.g. "[\"Yes\",\"No\"]"); use the Parse* helpers to decode them.
type GammaMarket struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug"`
	Category      string    `json:"category"`
	Active        flexBool  `json:"active"`
	Closed        flexBool  `json:"closed"`
	Liquidity     flexFloat `json:"liquidityNum"`
	Volume        flexFloat `json:"volumeNum"`
	Outcomes      string    `json:"outcomes"`
	OutcomePrices string    `json:"outcomePrices"`
	ClobTokenIDs  string    `json:"clobTokenIds"`
	EndDateISO    string    `json:"endDateIso"`
}

// ParseOutcomes decodes the JSON-string-encoded outcome name list.
func (m *GammaMarket) ParseOutcomes() ([]string, error) {
	return decodeStringList(m.Outcomes, "outcomes")
}

// ParsePrices decodes the JSON-string-encoded outcome price list. Prices
// stay as strings so callers can choose their numeric representation.
func (m *GammaMarket) ParsePrices() ([]string, error) {
	return decodeStringList(m.OutcomePrices, "outcomePrices")
}

// ParseTokenIDs decodes the JSON-string-encoded CLOB token ID list.
func (m *GammaMarket) ParseTokenIDs() ([]string, error) {
	return decodeStringList(m.ClobTokenIDs, "clobTokenIds")
}

// decodeStringList parses a field that holds a JSON array serialized into a
// string. An empty field decodes to an empty list rather than an error.
func decodeStringList(raw, field string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode %s: %w", field, err)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success      bool   `json:"success"`
	ErrorMsg     string `json:"errorMsg,omitempty"`
	OrderID      string `json:"orderID,omitempty"`
	Status       string `json:"status,omitempty"`
	TransactID   string `json:"transactID,omitempty"`
	TakingAmount string `json:"takingAmount,omitempty"`
	MakingAmount string `json:"makingAmount,omitempty"`
	ShouldRetry  bool   `json:"shouldRetry,omitempty"`
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// BookMessage represents a full orderbook snapshot delivered over WebSocket.
type BookMessage struct {
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
	Hash      string         `json:"hash"`
}

// WSPriceLevel is a single bid/ask level in the WebSocket orderbook data.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BestAsk returns the lowest ask price in the snapshot, or ok=false when the
// ask side is empty or unparseable.
func (b *BookMessage) BestAsk() (float64, bool) {
	best := 0.0
	found := false
	for _, lvl := range b.Asks {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil || p <= 0 {
			continue
		}
		if !found || p < best {
			best = p
			found = true
		}
	}
	return best, found
}

// WSCommand is the JSON payload sent to the WebSocket to subscribe/unsubscribe.
type WSCommand struct {
	Type    string   `json:"type"` // "subscribe" or "unsubscribe"
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}
