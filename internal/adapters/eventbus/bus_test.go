package eventbus_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/enersync/utility_sync_app/internal/adapters/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []eventbus.Envelope
	closed bool
}

func (s *recordingSink) Emit(ctx context.Context, e eventbus.Envelope) error {
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func TestBus_FireDeliversToSubscribersAndSinks(t *testing.T) {
	bus, err := eventbus.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	var gotType string
	var gotData map[string]any
	bus.Subscribe(func(eventType string, data map[string]any) {
		gotType = eventType
		gotData = data
	})

	sink := &recordingSink{}
	bus.AddSink(sink)

	bus.Fire(context.Background(), "usync_push_result", map[string]any{"meter_code": "EM-1"})

	assert.Equal(t, "usync_push_result", gotType)
	assert.Equal(t, "EM-1", gotData["meter_code"])

	require.Len(t, sink.events, 1)
	assert.Equal(t, "usync_push_result", sink.events[0].Type)
	assert.NotEmpty(t, sink.events[0].EventID)
	assert.False(t, sink.events[0].FiredAt.IsZero())
}

func TestBus_EventIDsAreUnique(t *testing.T) {
	bus, err := eventbus.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	sink := &recordingSink{}
	bus.AddSink(sink)

	for i := 0; i < 10; i++ {
		bus.Fire(context.Background(), "usync_push_result", nil)
	}

	seen := make(map[string]bool, len(sink.events))
	for _, e := range sink.events {
		assert.False(t, seen[e.EventID], "duplicate event id %s", e.EventID)
		seen[e.EventID] = true
	}
}

func TestBus_CloseShutsDownSinks(t *testing.T) {
	bus, err := eventbus.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	sink := &recordingSink{}
	bus.AddSink(sink)

	require.NoError(t, bus.Close())
	assert.True(t, sink.closed)

	// Firing after close reaches no sinks.
	bus.Fire(context.Background(), "usync_push_result", nil)
	assert.Len(t, sink.events, 0)
}
