package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/core/ports"
	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/enersync/utility_sync_app/internal/registry"
)

// ReconcilerParams groups the dependencies of a Reconciler.
type ReconcilerParams struct {
	ManagedAccountID string
	Provider         ports.AccountProvider
	Guard            *SessionGuard
	Host             ports.EntityHost
	Scope            *registry.Scope
	Config           *config.Config
	Logger           *slog.Logger
	// OpMu serializes reconciliation cycles against indication operations on
	// the same managed account.
	OpMu *sync.Mutex
}

// Reconciler converges the entity scope of one managed account onto the
// provider's current account, meter and invoice sets. Cycles are idempotent:
// running twice against unchanged provider data changes nothing.
type Reconciler struct {
	managedAccountID string
	provider         ports.AccountProvider
	guard            *SessionGuard
	host             ports.EntityHost
	scope            *registry.Scope
	cfg              *config.Config
	logger           *slog.Logger
	opMu             *sync.Mutex
}

func NewReconciler(p ReconcilerParams) *Reconciler {
	return &Reconciler{
		managedAccountID: p.ManagedAccountID,
		provider:         p.Provider,
		guard:            p.Guard,
		host:             p.Host,
		scope:            p.Scope,
		cfg:              p.Config,
		logger:           p.Logger.With(slog.String("managed_account", p.ManagedAccountID)),
		opMu:             p.OpMu,
	}
}

// RunCycle executes one reconciliation cycle. A session or account-listing
// failure aborts the whole cycle; failures below the account level are
// logged and isolated to their branch. Newly created entities join the scope
// only after the refresh barrier, so a cycle abort leaves no half-registered
// entities behind.
func (r *Reconciler) RunCycle(ctx context.Context) (dto.CycleSummary, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	summary := dto.CycleSummary{ManagedAccountID: r.managedAccountID}
	r.logger.Debug("starting reconciliation cycle")

	if err := r.guard.EnsureSession(ctx); err != nil {
		return summary, err
	}

	accounts, err := r.provider.Accounts(ctx)
	if err != nil {
		return summary, fmt.Errorf("%w: listing accounts: %v", apperrors.ErrFetch, err)
	}

	var (
		newAccounts []*entity.AccountEntity
		newMeters   []*entity.MeterEntity
		newInvoices []*entity.InvoiceEntity
	)

	tasks := newTaskGroup(r.logger)

	for _, account := range accounts {
		code := account.AccountCode

		acctEnt := r.scope.Get(code)
		if acctEnt == nil {
			acctEnt = entity.NewAccountEntity(account, r.cfg.AccountNameFormat)
			newAccounts = append(newAccounts, acctEnt)
			created := acctEnt
			tasks.Go("refresh account "+code, func() error {
				return created.Refresh(ctx, r.provider)
			})
		} else {
			acctEnt.SetAccount(account)
			existing := acctEnt
			tasks.Go("republish account "+code, func() error {
				return r.republish(ctx, existing, existing.Refresh(ctx, r.provider))
			})
		}

		r.reconcileMeters(ctx, acctEnt, account, tasks, &newMeters)

		if r.cfg.Invoices.EnabledFor(code) {
			r.reconcileInvoice(ctx, acctEnt, account, tasks, &newInvoices)
		}
	}

	tasks.Wait()

	if len(newAccounts) > 0 {
		batch := make([]entity.Entity, len(newAccounts))
		for i, e := range newAccounts {
			batch[i] = e
		}
		r.publishBatch(ctx, "accounts", batch)
	}
	if len(newMeters) > 0 {
		batch := make([]entity.Entity, len(newMeters))
		for i, e := range newMeters {
			batch[i] = e
		}
		r.publishBatch(ctx, "meters", batch)
	}
	if len(newInvoices) > 0 {
		batch := make([]entity.Entity, len(newInvoices))
		for i, e := range newInvoices {
			batch[i] = e
		}
		r.publishBatch(ctx, "invoices", batch)
	}

	// Meter and invoice entities joined their account entity during the
	// loop; only fresh account entities still need to join the scope.
	for _, acctEnt := range newAccounts {
		r.scope.Upsert(acctEnt.Account().AccountCode, acctEnt)
	}

	summary.AccountsCreated = len(newAccounts)
	summary.MetersCreated = len(newMeters)
	summary.InvoicesCreated = len(newInvoices)

	r.logger.Info("reconciliation cycle finished",
		slog.Int("accounts_created", summary.AccountsCreated),
		slog.Int("meters_created", summary.MetersCreated),
		slog.Int("invoices_created", summary.InvoicesCreated),
	)
	return summary, nil
}

// RequestRefresh runs an out-of-cycle reconciliation, logging any failure.
// Used after a successful indication push so submitted values surface without
// waiting for the next scheduled cycle.
func (r *Reconciler) RequestRefresh(ctx context.Context) {
	if _, err := r.RunCycle(ctx); err != nil {
		r.logger.Error("out-of-cycle refresh failed", slog.String("error", err.Error()))
	}
}

// reconcileMeters diffs the fetched meter set of one account against its
// child meter entities. Vanished meters are retired, surviving ones keep
// their entity identity, new ones are created and refreshed.
func (r *Reconciler) reconcileMeters(ctx context.Context, acctEnt *entity.AccountEntity, account domain.Account, tasks *taskGroup, newMeters *[]*entity.MeterEntity) {
	code := account.AccountCode

	meters, err := r.provider.Meters(ctx, code)
	if err != nil {
		r.logger.Error("error fetching meters",
			slog.String("account_code", code),
			slog.String("error", err.Error()),
		)
		return
	}

	filter := r.cfg.MeterFilterFor(code)
	fetched := make(map[string]domain.Meter, len(meters))
	ordered := make([]domain.Meter, 0, len(meters))
	for _, m := range meters {
		if !filter.Allows(m.MeterCode()) {
			continue
		}
		fetched[m.MeterCode()] = m
		ordered = append(ordered, m)
	}

	for meterCode, meterEnt := range acctEnt.Meters() {
		if _, ok := fetched[meterCode]; ok {
			continue
		}
		acctEnt.RemoveMeter(meterCode)
		uniqueID := meterEnt.UniqueID()
		tasks.Go("remove meter "+meterCode, func() error {
			return r.host.RemoveEntity(ctx, uniqueID)
		})
	}

	for _, m := range ordered {
		meterCode := m.MeterCode()

		if existing := acctEnt.Meter(meterCode); existing != nil {
			existing.SetMeter(m)
			tasks.Go("republish meter "+meterCode, func() error {
				return r.republish(ctx, existing, existing.Refresh(ctx))
			})
			continue
		}

		meterEnt := entity.NewMeterEntity(m, r.cfg.MeterNameFormat)
		acctEnt.SetMeter(meterCode, meterEnt)
		*newMeters = append(*newMeters, meterEnt)
		tasks.Go("refresh meter "+meterCode, func() error {
			return meterEnt.Refresh(ctx)
		})
	}
}

// reconcileInvoice tracks the most recent invoice of one account: created on
// first sight, replaced in place when the provider reports a newer invoice
// id, left untouched otherwise.
func (r *Reconciler) reconcileInvoice(ctx context.Context, acctEnt *entity.AccountEntity, account domain.Account, tasks *taskGroup, newInvoices *[]*entity.InvoiceEntity) {
	code := account.AccountCode

	invoice, err := r.provider.LastInvoice(ctx, code)
	if err != nil {
		r.logger.Error("error fetching last invoice",
			slog.String("account_code", code),
			slog.String("error", err.Error()),
		)
		return
	}
	if invoice == nil {
		return
	}

	current := acctEnt.Invoice()
	if current == nil {
		invEnt := entity.NewInvoiceEntity(*invoice, r.cfg.InvoiceNameFormat)
		acctEnt.SetInvoice(invEnt)
		*newInvoices = append(*newInvoices, invEnt)
		tasks.Go("refresh invoice "+code, func() error {
			return invEnt.Refresh(ctx)
		})
		return
	}

	if current.InvoiceID() != invoice.InvoiceID {
		current.SetInvoice(*invoice)
		tasks.Go("republish invoice "+code, func() error {
			return r.republish(ctx, current, current.Refresh(ctx))
		})
	}
}

// republish pushes the fresh snapshot of an already registered entity.
func (r *Reconciler) republish(ctx context.Context, e entity.Entity, refreshErr error) error {
	if refreshErr != nil {
		return refreshErr
	}
	return r.host.PublishState(ctx, e)
}

func (r *Reconciler) publishBatch(ctx context.Context, kind string, batch []entity.Entity) {
	if err := r.host.PublishEntities(ctx, batch); err != nil {
		r.logger.Error("error publishing entity batch",
			slog.String("kind", kind),
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}
}

// taskGroup fans refresh work out to goroutines and joins them before entity
// publication. Individual task failures are logged, never fatal to the cycle.
type taskGroup struct {
	wg     sync.WaitGroup
	logger *slog.Logger
}

func newTaskGroup(logger *slog.Logger) *taskGroup {
	return &taskGroup{logger: logger}
}

func (g *taskGroup) Go(name string, fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(); err != nil {
			g.logger.Error("refresh task failed",
				slog.String("task", name),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (g *taskGroup) Wait() {
	g.wg.Wait()
}
