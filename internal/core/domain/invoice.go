package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the latest billing document of one account. At most one
// "current" invoice entity is retained per account at any time.
type Invoice struct {
	InvoiceID      string          `json:"invoiceID"`
	AccountCode    string          `json:"accountCode"`
	Period         time.Time       `json:"period"` // Billing period (first day of month)
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	Charged        decimal.Decimal `json:"charged"`
	Insurance      decimal.Decimal `json:"insurance"`
	Benefits       decimal.Decimal `json:"benefits"`
	Penalty        decimal.Decimal `json:"penalty"`
	ServiceName    string          `json:"serviceName"`
}

// ChargeCalculation is the result of a what-if charge computation for a set
// of candidate indications.
type ChargeCalculation struct {
	Period      time.Time        `json:"period"`
	Charged     decimal.Decimal  `json:"charged"`
	Indications map[string]int64 `json:"indications"` // tariff/category -> contributing value
	Comment     string           `json:"comment"`
}
