package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

const (
	// probeHandshakeTimeout bounds the WebSocket dial.
	probeHandshakeTimeout = 10 * time.Second

	// probeWriteWait is the time allowed to write the subscribe command.
	probeWriteWait = 5 * time.Second
)

// BookProber takes one-shot orderbook snapshots over the CLOB WebSocket.
// It exists to catch stale REST quotes just before live submission: dial,
// subscribe to the basket's tokens on the book channel, collect one snapshot
// per token, close. No long-lived connection, no reconnect loop.
type BookProber struct {
	wsURL string
}

// NewBookProber creates a prober for the given WebSocket endpoint, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewBookProber(wsURL string) *BookProber {
	return &BookProber{wsURL: wsURL}
}

// BestAsks returns the best ask per token ID for as many of the requested
// tokens as deliver a book snapshot before the context deadline. The caller
// decides what a missing entry means; the prober only reports what it saw.
func (p *BookProber) BestAsks(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	if len(tokenIDs) == 0 {
		return map[string]float64{}, nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: probeHandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, p.wsURL, nil)
	if err != nil {
		return nil, &domain.TransportError{Op: "book probe dial", Err: err}
	}
	defer conn.Close()

	cmd := WSCommand{
		Type:    "subscribe",
		Channel: "book",
		Assets:  tokenIDs,
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("polymarket/ws: marshal subscribe: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(probeWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, &domain.TransportError{Op: "book probe subscribe", Err: err}
	}

	want := make(map[string]struct{}, len(tokenIDs))
	for _, id := range tokenIDs {
		want[id] = struct{}{}
	}

	asks := make(map[string]float64, len(tokenIDs))
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(probeHandshakeTimeout)
	}

	for len(want) > 0 {
		if err := ctx.Err(); err != nil {
			break
		}
		conn.SetReadDeadline(deadline)
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Timeout or close: return whatever was collected so far.
			break
		}
		for _, book := range decodeBookFrames(raw) {
			if _, pending := want[book.AssetID]; !pending {
				continue
			}
			if ask, found := book.BestAsk(); found {
				asks[book.AssetID] = ask
			}
			delete(want, book.AssetID)
		}
	}

	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)

	return asks, nil
}

// decodeBookFrames parses a raw frame into book snapshots. The endpoint
// sends either a single object or an array of them; non-book messages are
// dropped.
func decodeBookFrames(raw []byte) []BookMessage {
	var batch []BookMessage
	if err := json.Unmarshal(raw, &batch); err == nil {
		return filterBooks(batch)
	}

	var single BookMessage
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil
	}
	return filterBooks([]BookMessage{single})
}

func filterBooks(msgs []BookMessage) []BookMessage {
	out := msgs[:0]
	for _, m := range msgs {
		if m.EventType == "book" && m.AssetID != "" {
			out = append(out, m)
		}
	}
	return out
}
