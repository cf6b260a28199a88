package entity

import (
	"context"
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/utils/templating"
)

// InvoiceEntity projects the current invoice of one account.
type InvoiceEntity struct {
	base
	nameFormat string

	mu      sync.RWMutex
	invoice domain.Invoice
}

func NewInvoiceEntity(invoice domain.Invoice, nameFormat string) *InvoiceEntity {
	e := &InvoiceEntity{
		nameFormat: nameFormat,
		invoice:    invoice,
	}
	e.icon = "mdi:receipt"
	e.unit = CurrencyUnit
	return e
}

// SetInvoice replaces the backing invoice, preserving entity identity.
// Stale invoice ids are never shown: callers replace the invoice before the
// forced republish.
func (e *InvoiceEntity) SetInvoice(invoice domain.Invoice) {
	e.mu.Lock()
	e.invoice = invoice
	e.mu.Unlock()
}

func (e *InvoiceEntity) Invoice() domain.Invoice {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.invoice
}

// InvoiceID returns the id of the currently held invoice.
func (e *InvoiceEntity) InvoiceID() string {
	return e.Invoice().InvoiceID
}

func (e *InvoiceEntity) UniqueID() string {
	return "invoice_" + e.Invoice().AccountCode
}

func (e *InvoiceEntity) Name() string {
	code := e.Invoice().AccountCode
	name, err := templating.Render(e.nameFormat, map[string]string{"code": code})
	if err != nil {
		return "Invoice " + code
	}
	return name
}

func (e *InvoiceEntity) Snapshot() Snapshot {
	return e.base.snapshot(e.UniqueID(), e.Name())
}

// Refresh recomputes the derived state from the held invoice.
func (e *InvoiceEntity) Refresh(ctx context.Context) error {
	invoice := e.Invoice()

	attrs := map[string]any{
		"period":     invoice.Period.Format("2006-01-02"),
		"invoice_id": invoice.InvoiceID,
		"total":      invoice.Total.String(),
		"paid":       invoice.PaidAmount.String(),
		"initial":    invoice.InitialBalance.String(),
		"charged":    invoice.Charged.String(),
		"insurance":  invoice.Insurance.String(),
		"benefits":   invoice.Benefits.String(),
		"penalty":    invoice.Penalty.String(),
		"service":    invoice.ServiceName,
	}

	e.setDerived(invoice.Total.Round(2).String(), CurrencyUnit, attrs)
	return nil
}

var (
	_ Entity = (*AccountEntity)(nil)
	_ Entity = (*MeterEntity)(nil)
	_ Entity = (*InvoiceEntity)(nil)
)
