package entity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/utils/templating"
)

// CurrencyUnit is the display unit for monetary entity states.
const CurrencyUnit = "RUB"

// AccountEntity projects one Account and owns (by identity) its child meter
// entities keyed by meter code and at most one current invoice entity.
type AccountEntity struct {
	base
	nameFormat string

	mu      sync.RWMutex
	account domain.Account
	meters  map[string]*MeterEntity
	invoice *InvoiceEntity
}

func NewAccountEntity(account domain.Account, nameFormat string) *AccountEntity {
	e := &AccountEntity{
		nameFormat: nameFormat,
		account:    account,
		meters:     make(map[string]*MeterEntity),
	}
	e.icon = "mdi:flash-circle"
	return e
}

// SetAccount replaces the backing account snapshot, preserving entity
// identity across reconciliation cycles.
func (e *AccountEntity) SetAccount(account domain.Account) {
	e.mu.Lock()
	e.account = account
	e.mu.Unlock()
}

func (e *AccountEntity) Account() domain.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.account
}

// Meter returns the child meter entity for code, or nil.
func (e *AccountEntity) Meter(code string) *MeterEntity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meters[code]
}

// Meters returns a copy of the child meter entity mapping.
func (e *AccountEntity) Meters() map[string]*MeterEntity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]*MeterEntity, len(e.meters))
	for code, m := range e.meters {
		out[code] = m
	}
	return out
}

// SetMeter attaches a child meter entity under its meter code. Codes are
// unique within the account's entity set at any instant.
func (e *AccountEntity) SetMeter(code string, m *MeterEntity) {
	e.mu.Lock()
	e.meters[code] = m
	e.mu.Unlock()
}

// RemoveMeter detaches the child meter entity for code.
func (e *AccountEntity) RemoveMeter(code string) {
	e.mu.Lock()
	delete(e.meters, code)
	e.mu.Unlock()
}

// Invoice returns the current invoice entity, or nil when none is held.
func (e *AccountEntity) Invoice() *InvoiceEntity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.invoice
}

func (e *AccountEntity) SetInvoice(inv *InvoiceEntity) {
	e.mu.Lock()
	e.invoice = inv
	e.mu.Unlock()
}

func (e *AccountEntity) UniqueID() string {
	return fmt.Sprintf("ls_%d", e.Account().ServiceID)
}

func (e *AccountEntity) Name() string {
	account := e.Account()
	name, err := templating.Render(e.nameFormat, map[string]string{
		"code":          account.AccountCode,
		"service_name":  account.ServiceName,
		"provider_name": account.ProviderName,
	})
	if err != nil {
		return "Account " + account.AccountCode
	}
	return name
}

func (e *AccountEntity) Snapshot() Snapshot {
	return e.base.snapshot(e.UniqueID(), e.Name())
}

// Refresh recomputes the derived display state. Locked accounts expose only
// the lock status; unlocked accounts pull last payment and current balance
// from the provider, plus remaining submission days for electricity.
func (e *AccountEntity) Refresh(ctx context.Context, q AccountQuerier) error {
	account := e.Account()

	attrs := map[string]any{
		"account_code": account.AccountCode,
		"address":      account.Address,
		"service_type": strings.ToLower(string(account.ServiceType)),
	}

	if account.Locked {
		attrs["status"] = StateLocked
		attrs["reason"] = account.LockReason
		e.setDerived(StateUnknown, "", attrs)
		return nil
	}

	payment, err := q.LastPayment(ctx, account.AccountCode)
	if err != nil {
		return fmt.Errorf("%w: last payment for account %s: %v", apperrors.ErrFetch, account.AccountCode, err)
	}
	balance, err := q.CurrentBalance(ctx, account.AccountCode)
	if err != nil {
		return fmt.Errorf("%w: balance for account %s: %v", apperrors.ErrFetch, account.AccountCode, err)
	}

	if payment != nil {
		attrs["last_payment_date"] = payment.Date.Format("2006-01-02")
		attrs["last_payment_amount"] = payment.Amount.String()
		attrs["last_payment_status"] = payment.Status
	}
	attrs["status"] = StateOK

	if account.ServiceType == domain.ServiceElectricity {
		remaining, err := q.RemainingDays(ctx, account.AccountCode)
		if err != nil {
			return fmt.Errorf("%w: remaining days for account %s: %v", apperrors.ErrFetch, account.AccountCode, err)
		}
		attrs["remaining_days"] = remaining
	}

	e.setDerived(balance.String(), CurrencyUnit, attrs)
	return nil
}
