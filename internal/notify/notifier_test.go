package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	name   string
	titles []string
	err    error
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	f.titles = append(f.titles, title)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyFiltersByEvent(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, []string{EventBasketExecuted}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, n.Notify(context.Background(), EventArbDetected, "detected", "m"))
	assert.Empty(t, sender.titles)

	require.NoError(t, n.Notify(context.Background(), EventBasketExecuted, "executed", "m"))
	assert.Equal(t, []string{"executed"}, sender.titles)
}

func TestNotifyEmptyEventListAllowsAll(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, n.Notify(context.Background(), EventCycleError, "a", "m"))
	require.NoError(t, n.Notify(context.Background(), EventLegRejected, "b", "m"))
	assert.Len(t, sender.titles, 2)
}

func TestDispatchContinuesPastFailingSender(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("boom")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	err := n.NotifyAll(context.Background(), "title", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, good.titles, 1, "remaining senders still deliver")
}

func TestNotifyNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, n.NotifyAll(context.Background(), "title", "m"))
}
