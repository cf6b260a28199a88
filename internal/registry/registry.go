// Package registry is the process-scoped store of materialized entities,
// keyed by managed-account identity. It does no I/O; scopes are created when
// a managed account is registered and torn down when it is removed.
package registry

import (
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/entity"
)

// Registry maps managed-account ids to their entity scopes.
type Registry struct {
	mu     sync.RWMutex
	scopes map[string]*Scope
}

func New() *Registry {
	return &Registry{scopes: make(map[string]*Scope)}
}

// GetOrCreateScope returns the scope for a managed account, creating it on
// first use.
func (r *Registry) GetOrCreateScope(managedAccountID string) *Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	scope, ok := r.scopes[managedAccountID]
	if !ok {
		scope = newScope()
		r.scopes[managedAccountID] = scope
	}
	return scope
}

// Scope returns the scope for a managed account, or nil.
func (r *Registry) Scope(managedAccountID string) *Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scopes[managedAccountID]
}

// RemoveScope tears down a managed account's scope.
func (r *Registry) RemoveScope(managedAccountID string) {
	r.mu.Lock()
	delete(r.scopes, managedAccountID)
	r.mu.Unlock()
}

// Scopes returns a copy of the scope mapping for cross-scope scans.
func (r *Registry) Scopes() map[string]*Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Scope, len(r.scopes))
	for id, scope := range r.scopes {
		out[id] = scope
	}
	return out
}

// Scope holds the account entities of one managed account, keyed by account
// code. It never holds two live entities for the same code.
type Scope struct {
	mu       sync.RWMutex
	accounts map[string]*entity.AccountEntity
}

func newScope() *Scope {
	return &Scope{accounts: make(map[string]*entity.AccountEntity)}
}

// Get returns the account entity for code, or nil.
func (s *Scope) Get(code string) *entity.AccountEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[code]
}

// Upsert stores the account entity under its code, replacing any previous
// holder of that code.
func (s *Scope) Upsert(code string, e *entity.AccountEntity) {
	s.mu.Lock()
	s.accounts[code] = e
	s.mu.Unlock()
}

// Remove deletes the account entity for code.
func (s *Scope) Remove(code string) {
	s.mu.Lock()
	delete(s.accounts, code)
	s.mu.Unlock()
}

// All returns the live account entities in unspecified order.
func (s *Scope) All() []*entity.AccountEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.AccountEntity, 0, len(s.accounts))
	for _, e := range s.accounts {
		out = append(out, e)
	}
	return out
}
