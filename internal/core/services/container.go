package services

import (
	"log/slog"
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/ports"
	portssvc "github.com/enersync/utility_sync_app/internal/core/ports/services"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/enersync/utility_sync_app/internal/registry"
)

// ContainerParams groups the adapters and configuration the service layer is
// built from.
type ContainerParams struct {
	Config   *config.Config
	Registry *registry.Registry
	Provider ports.AccountProvider
	Host     ports.EntityHost
	Notifier ports.Notifier
	Bus      ports.EventBus
	Entities portssvc.EntitySvcFacade
	Logger   *slog.Logger
}

// Container holds the wired services plus the scheduler that drives them.
type Container struct {
	Services  *portssvc.ServiceContainer
	Scheduler *Scheduler
	Guard     *SessionGuard
}

// NewContainer wires the service layer for the configured managed account.
// The provider username doubles as the managed-account identity.
func NewContainer(p ContainerParams) *Container {
	managedAccountID := p.Config.Provider.Username

	guard := NewSessionGuard(p.Provider, p.Config.LoginTimeout, p.Logger)
	scope := p.Registry.GetOrCreateScope(managedAccountID)

	// One mutex per managed account serializes reconciliation cycles
	// against indication operations hitting the same provider session.
	opMu := &sync.Mutex{}

	reconciler := NewReconciler(ReconcilerParams{
		ManagedAccountID: managedAccountID,
		Provider:         p.Provider,
		Guard:            guard,
		Host:             p.Host,
		Scope:            scope,
		Config:           p.Config,
		Logger:           p.Logger,
		OpMu:             opMu,
	})

	indications := NewIndicationService(p.Registry, p.Notifier, p.Bus, p.Logger)
	indications.RegisterManagedAccount(managedAccountID, p.Provider, opMu, reconciler.RequestRefresh)

	syncSvc := NewSyncService(map[string]*Reconciler{managedAccountID: reconciler}, p.Logger)
	scheduler := NewScheduler([]*Reconciler{reconciler}, p.Config.ScanInterval, p.Logger)

	return &Container{
		Services: &portssvc.ServiceContainer{
			Indications: indications,
			Sync:        syncSvc,
			Entities:    p.Entities,
		},
		Scheduler: scheduler,
		Guard:     guard,
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.IndicationSvcFacade = (*IndicationService)(nil)
	_ portssvc.SyncSvcFacade       = (*SyncService)(nil)
)
