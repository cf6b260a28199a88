// Package eventbus fans operation-result events out to in-process
// subscribers and optional external sinks.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/enersync/utility_sync_app/internal/core/ports"
)

// Envelope wraps one fired event with its bus-assigned identity.
type Envelope struct {
	EventID string         `json:"event_id"`
	Type    string         `json:"event_type"`
	FiredAt time.Time      `json:"fired_at"`
	Data    map[string]any `json:"data"`
}

// Handler receives fired events in-process. Handlers run on the firing
// goroutine and must return quickly.
type Handler func(eventType string, data map[string]any)

// Sink forwards events to an external system.
type Sink interface {
	Emit(ctx context.Context, e Envelope) error
	Close() error
}

// Bus assigns each event a snowflake id and delivers it to every subscriber
// and sink. Delivery failures are logged, never surfaced to the operation
// that fired the event.
type Bus struct {
	node   *snowflake.Node
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers []Handler
	sinks       []Sink
}

func NewBus(logger *slog.Logger) (*Bus, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node: %w", err)
	}
	return &Bus{node: node, logger: logger}, nil
}

// Subscribe registers an in-process handler for all event types.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.subscribers = append(b.subscribers, h)
	b.mu.Unlock()
}

// AddSink attaches an external sink. The bus owns the sink from here on and
// closes it on Close.
func (b *Bus) AddSink(s Sink) {
	b.mu.Lock()
	b.sinks = append(b.sinks, s)
	b.mu.Unlock()
}

// Fire publishes one event.
func (b *Bus) Fire(ctx context.Context, eventType string, data map[string]any) {
	envelope := Envelope{
		EventID: b.node.Generate().String(),
		Type:    eventType,
		FiredAt: time.Now().UTC(),
		Data:    data,
	}

	b.mu.RLock()
	subscribers := make([]Handler, len(b.subscribers))
	copy(subscribers, b.subscribers)
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, h := range subscribers {
		h(eventType, data)
	}
	for _, s := range sinks {
		if err := s.Emit(ctx, envelope); err != nil {
			b.logger.Error("event sink emit failed",
				slog.String("event_type", eventType),
				slog.String("event_id", envelope.EventID),
				slog.String("error", err.Error()),
			)
		}
	}

	b.logger.Debug("event fired",
		slog.String("event_type", eventType),
		slog.String("event_id", envelope.EventID),
	)
}

// Close shuts down the attached sinks.
func (b *Bus) Close() error {
	b.mu.Lock()
	sinks := b.sinks
	b.sinks = nil
	b.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ ports.EventBus = (*Bus)(nil)
