// Package host implements the in-process entity host: published entity
// snapshots are retained in memory and served through the API instead of
// being handed to an external framework.
package host

import (
	"context"
	"log/slog"
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	portssvc "github.com/enersync/utility_sync_app/internal/core/ports/services"
)

// InMemoryHost keeps the latest snapshot of every published entity, in
// publication order.
type InMemoryHost struct {
	logger *slog.Logger

	mu        sync.RWMutex
	snapshots map[string]entity.Snapshot
	order     []string
}

func NewInMemoryHost(logger *slog.Logger) *InMemoryHost {
	return &InMemoryHost{
		logger:    logger,
		snapshots: make(map[string]entity.Snapshot),
	}
}

// PublishEntities registers a batch of newly created entities.
func (h *InMemoryHost) PublishEntities(ctx context.Context, entities []entity.Entity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range entities {
		h.store(e.Snapshot())
	}
	h.logger.Debug("published entity batch", slog.Int("count", len(entities)))
	return nil
}

// PublishState pushes the current snapshot of an already registered entity.
// Publishing an unknown entity registers it; the host is the source of truth
// for what exists, not a gatekeeper.
func (h *InMemoryHost) PublishState(ctx context.Context, e entity.Entity) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.store(e.Snapshot())
	return nil
}

// RemoveEntity retires a registered entity by its unique id.
func (h *InMemoryHost) RemoveEntity(ctx context.Context, uniqueID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.snapshots[uniqueID]; !ok {
		return nil
	}
	delete(h.snapshots, uniqueID)
	for i, id := range h.order {
		if id == uniqueID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.logger.Debug("removed entity", slog.String("unique_id", uniqueID))
	return nil
}

// Entities returns the retained snapshots in publication order.
func (h *InMemoryHost) Entities(ctx context.Context) []entity.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]entity.Snapshot, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.snapshots[id])
	}
	return out
}

// store must be called with the write lock held.
func (h *InMemoryHost) store(s entity.Snapshot) {
	if _, ok := h.snapshots[s.UniqueID]; !ok {
		h.order = append(h.order, s.UniqueID)
	}
	h.snapshots[s.UniqueID] = s
}

var (
	_ ports.EntityHost         = (*InMemoryHost)(nil)
	_ portssvc.EntitySvcFacade = (*InMemoryHost)(nil)
)
