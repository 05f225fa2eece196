package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

type memoryPutter struct {
	puts       map[string][]byte
	multiparts int
}

func newMemoryPutter() *memoryPutter {
	return &memoryPutter{puts: make(map[string][]byte)}
}

func (m *memoryPutter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.puts[path] = buf
	return nil
}

func (m *memoryPutter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	m.multiparts++
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.puts[path] = buf
	return nil
}

func testRecord(id string) *domain.TradeRecord {
	return &domain.TradeRecord{
		ID:         id,
		MarketID:   "mkt-1",
		Slug:       "test-market",
		PriceSum:   decimal.RequireFromString("0.95"),
		Edge:       decimal.RequireFromString("0.02"),
		Status:     domain.TradeSettled,
		ExecutedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSessionArchiverFlushWritesJSONL(t *testing.T) {
	putter := newMemoryPutter()
	a := NewSessionArchiver(putter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	a.Record(testRecord("r1"))
	a.Record(testRecord("r2"))
	require.NoError(t, a.Flush(context.Background()))

	data, ok := putter.puts[a.Key()]
	require.True(t, ok, "flush must write the session key")

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"r1"`)
	assert.Contains(t, lines[1], `"r2"`)
	assert.Equal(t, 0, putter.multiparts)
}

func TestSessionArchiverFlushIsIdempotentWhenClean(t *testing.T) {
	putter := newMemoryPutter()
	a := NewSessionArchiver(putter, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, a.Flush(context.Background()))
	assert.Empty(t, putter.puts, "nothing buffered, nothing uploaded")

	a.Record(testRecord("r1"))
	require.NoError(t, a.Flush(context.Background()))
	first := append([]byte(nil), putter.puts[a.Key()]...)

	// A clean second flush re-uploads nothing.
	delete(putter.puts, a.Key())
	require.NoError(t, a.Flush(context.Background()))
	assert.Empty(t, putter.puts)

	// A new record makes the session dirty again and rewrites the full log.
	a.Record(testRecord("r2"))
	require.NoError(t, a.Flush(context.Background()))
	second := putter.puts[a.Key()]
	assert.True(t, bytes.HasPrefix(second, first), "session log is cumulative")
}

func TestSessionArchiverKeyLayout(t *testing.T) {
	a := NewSessionArchiver(newMemoryPutter(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	key := a.Key()
	assert.True(t, strings.HasPrefix(key, "trades/"), key)
	assert.True(t, strings.HasSuffix(key, ".jsonl"), key)
	assert.Contains(t, key, "session-")
}
