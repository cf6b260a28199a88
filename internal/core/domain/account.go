package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType tags an account with the kind of utility service it bills.
type ServiceType string

const (
	ServiceElectricity ServiceType = "ELECTRICITY"
	ServiceOther       ServiceType = "OTHER"
)

// Account represents one billed service contract under a managed account.
// It is a snapshot owned by the provider; the sync core references it but
// never mutates it.
type Account struct {
	ServiceID    int64       `json:"serviceID"`    // Provider-side identity of the service contract
	AccountCode  string      `json:"accountCode"`  // Human-facing contract number
	ProviderName string      `json:"providerName"` // Billing provider display name
	ServiceName  string      `json:"serviceName"`  // Billed service display name
	Address      string      `json:"address"`      // Service address
	ServiceType  ServiceType `json:"serviceType"`
	Locked       bool        `json:"locked"`     // Account is locked by the provider
	LockReason   string      `json:"lockReason"` // Optional, set only when Locked
}

// Payment is the most recent payment registered against an account.
type Payment struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}
