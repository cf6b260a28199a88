// Package entity holds the host-facing projections of provider data: each
// entity wraps one Account/Meter/Invoice plus a display-name template and
// owns a derived state, unit and attribute mapping recomputed on refresh.
package entity

import (
	"context"
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Display states exposed to the host.
const (
	StateOK      = "ok"
	StateLocked  = "locked"
	StateUnknown = "unknown"
)

// Entity is the surface the host sees: a stable unique id, a templated
// display name and the most recently derived state snapshot.
type Entity interface {
	UniqueID() string
	Name() string
	Snapshot() Snapshot
}

// Snapshot is one host-visible view of an entity.
type Snapshot struct {
	UniqueID   string         `json:"uniqueID"`
	Name       string         `json:"name"`
	State      string         `json:"state"`
	Unit       string         `json:"unit,omitempty"`
	Icon       string         `json:"icon,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// AccountQuerier is the subset of the provider needed to refresh an account
// entity's derived state.
type AccountQuerier interface {
	LastPayment(ctx context.Context, accountCode string) (*domain.Payment, error)
	CurrentBalance(ctx context.Context, accountCode string) (decimal.Decimal, error)
	RemainingDays(ctx context.Context, accountCode string) (int, error)
}

// base carries the derived display state shared by all entity kinds.
// Derived state is written by refresh tasks and read by the host; entity
// identity fields never change after construction.
type base struct {
	mu    sync.RWMutex
	state string
	unit  string
	icon  string
	attrs map[string]any
}

func (b *base) setDerived(state, unit string, attrs map[string]any) {
	b.mu.Lock()
	b.state = state
	b.unit = unit
	b.attrs = attrs
	b.mu.Unlock()
}

func (b *base) snapshot(uniqueID, name string) Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	attrs := make(map[string]any, len(b.attrs))
	for k, v := range b.attrs {
		attrs[k] = v
	}
	state := b.state
	if state == "" {
		state = StateUnknown
	}
	return Snapshot{
		UniqueID:   uniqueID,
		Name:       name,
		State:      state,
		Unit:       b.unit,
		Icon:       b.icon,
		Attributes: attrs,
	}
}
