package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/basketbot/internal/domain"
)

// multipartThreshold is the buffered payload size above which flushes switch
// to multipart upload.
const multipartThreshold = 5 * 1024 * 1024

// objectPutter is the slice of Writer the archiver uses.
type objectPutter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// SessionArchiver implements domain.TradeArchiver by accumulating the
// session's trade records and periodically uploading the full log as one
// JSONL object. Each flush rewrites the same session-scoped key, so the
// object always holds the complete session and a crashed flush loses nothing
// already uploaded.
//
// Key schema:
//
//	trades/YYYY/MM/DD/session-{uuid}.jsonl
type SessionArchiver struct {
	writer objectPutter
	key    string
	logger *slog.Logger

	mu      sync.Mutex
	records []domain.TradeRecord
	dirty   bool
}

var _ domain.TradeArchiver = (*SessionArchiver)(nil)

// NewSessionArchiver creates an archiver for a new session, keyed by the
// session start time and a fresh UUID.
func NewSessionArchiver(writer objectPutter, logger *slog.Logger) *SessionArchiver {
	started := time.Now().UTC()
	return &SessionArchiver{
		writer: writer,
		key: fmt.Sprintf("trades/%s/session-%s.jsonl",
			started.Format("2006/01/02"), uuid.NewString()),
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// Key returns the S3 object key this session archives to.
func (a *SessionArchiver) Key() string {
	return a.key
}

// Record buffers one trade record for the next flush. Safe for concurrent
// use; never blocks on the network.
func (a *SessionArchiver) Record(record *domain.TradeRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, *record)
	a.dirty = true
}

// Flush uploads the session log if anything changed since the last flush.
func (a *SessionArchiver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	snapshot := make([]domain.TradeRecord, len(a.records))
	copy(snapshot, a.records)
	a.mu.Unlock()

	payload, err := marshalJSONL(snapshot)
	if err != nil {
		return fmt.Errorf("s3blob: marshal session log: %w", err)
	}

	if len(payload) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, a.key, bytes.NewReader(payload), int64(len(payload)))
	} else {
		err = a.writer.Put(ctx, a.key, bytes.NewReader(payload), "application/x-ndjson")
	}
	if err != nil {
		return fmt.Errorf("s3blob: upload session log: %w", err)
	}

	a.mu.Lock()
	a.dirty = len(a.records) > len(snapshot)
	a.mu.Unlock()

	a.logger.DebugContext(ctx, "session log flushed",
		slog.String("key", a.key),
		slog.Int("records", len(snapshot)),
	)
	return nil
}

// Run flushes at the given interval until the context is canceled, then
// performs one final flush on a short grace timeout.
func (a *SessionArchiver) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Flush(flushCtx); err != nil {
				a.logger.Error("final session log flush failed",
					slog.String("error", err.Error()),
				)
			}
			return ctx.Err()
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil {
				a.logger.ErrorContext(ctx, "session log flush failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// marshalJSONL serializes records as newline-delimited JSON, one compact
// object per line.
func marshalJSONL(records []domain.TradeRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
