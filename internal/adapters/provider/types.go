package provider

import (
	"fmt"
	"time"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

const wireDateLayout = "2006-01-02"

// Meter kinds on the wire. Unknown kinds map to the generic variant so a
// provider-side addition never breaks reconciliation.
const (
	meterKindElectricity = "electricity"
	meterKindGeneric     = "generic"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type accountDTO struct {
	ServiceID    int64  `json:"service_id"`
	AccountCode  string `json:"account_code"`
	ProviderName string `json:"provider_name"`
	ServiceName  string `json:"service_name"`
	Address      string `json:"address"`
	ServiceType  string `json:"service_type"`
	Locked       bool   `json:"locked"`
	LockReason   string `json:"lock_reason"`
}

func (d accountDTO) toDomain() domain.Account {
	serviceType := domain.ServiceOther
	if d.ServiceType == "electricity" {
		serviceType = domain.ServiceElectricity
	}
	return domain.Account{
		ServiceID:    d.ServiceID,
		AccountCode:  d.AccountCode,
		ProviderName: d.ProviderName,
		ServiceName:  d.ServiceName,
		Address:      d.Address,
		ServiceType:  serviceType,
		Locked:       d.Locked,
		LockReason:   d.LockReason,
	}
}

type readingDTO struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Cost  decimal.Decimal `json:"cost"`
	Unit  string          `json:"unit"`
}

type meterDTO struct {
	Kind          string `json:"kind"`
	MeterCode     string `json:"meter_code"`
	AccountCode   string `json:"account_code"`
	Status        string `json:"status"`
	RemainingDays int    `json:"remaining_days"`

	// Electricity fields.
	InstallDate          string   `json:"install_date,omitempty"`
	PeriodStart          string   `json:"submit_period_start,omitempty"`
	PeriodEnd            string   `json:"submit_period_end,omitempty"`
	LastIndications      []int64  `json:"last_indications,omitempty"`
	SubmittedIndications []*int64 `json:"submitted_indications,omitempty"`
	TodayIndications     []int64  `json:"today_indications,omitempty"`

	// Generic fields.
	Readings map[string]readingDTO `json:"readings,omitempty"`
}

func (d meterDTO) toDomain() (domain.Meter, error) {
	switch d.Kind {
	case meterKindElectricity:
		installDate, err := parseWireDate(d.InstallDate)
		if err != nil {
			return nil, fmt.Errorf("meter %s: install_date: %w", d.MeterCode, err)
		}
		periodStart, err := parseWireDate(d.PeriodStart)
		if err != nil {
			return nil, fmt.Errorf("meter %s: submit_period_start: %w", d.MeterCode, err)
		}
		periodEnd, err := parseWireDate(d.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("meter %s: submit_period_end: %w", d.MeterCode, err)
		}
		return &domain.ElectricityMeter{
			Code:                 d.MeterCode,
			Account:              d.AccountCode,
			Status:               d.Status,
			RemainingDays:        d.RemainingDays,
			InstallDate:          installDate,
			PeriodStart:          periodStart,
			PeriodEnd:            periodEnd,
			LastIndications:      d.LastIndications,
			SubmittedIndications: d.SubmittedIndications,
			TodayIndications:     d.TodayIndications,
		}, nil

	default:
		readings := make(map[string]domain.Reading, len(d.Readings))
		for key, r := range d.Readings {
			readings[key] = domain.Reading{
				Name:  r.Name,
				Value: r.Value,
				Cost:  r.Cost,
				Unit:  r.Unit,
			}
		}
		return &domain.GenericMeter{
			Code:          d.MeterCode,
			Account:       d.AccountCode,
			Status:        d.Status,
			RemainingDays: d.RemainingDays,
			Readings:      readings,
		}, nil
	}
}

type invoiceDTO struct {
	InvoiceID      string          `json:"invoice_id"`
	AccountCode    string          `json:"account_code"`
	Period         string          `json:"period"`
	Total          decimal.Decimal `json:"total"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Charged        decimal.Decimal `json:"charged"`
	Insurance      decimal.Decimal `json:"insurance"`
	Benefits       decimal.Decimal `json:"benefits"`
	Penalty        decimal.Decimal `json:"penalty"`
	ServiceName    string          `json:"service_name"`
}

func (d invoiceDTO) toDomain() (*domain.Invoice, error) {
	period, err := parseWireDate(d.Period)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: period: %w", d.InvoiceID, err)
	}
	return &domain.Invoice{
		InvoiceID:      d.InvoiceID,
		AccountCode:    d.AccountCode,
		Period:         period,
		Total:          d.Total,
		PaidAmount:     d.PaidAmount,
		InitialBalance: d.InitialBalance,
		Charged:        d.Charged,
		Insurance:      d.Insurance,
		Benefits:       d.Benefits,
		Penalty:        d.Penalty,
		ServiceName:    d.ServiceName,
	}, nil
}

type paymentDTO struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

func (d paymentDTO) toDomain() (*domain.Payment, error) {
	date, err := parseWireDate(d.Date)
	if err != nil {
		return nil, fmt.Errorf("payment: date: %w", err)
	}
	return &domain.Payment{
		Date:   date,
		Amount: d.Amount,
		Status: d.Status,
	}, nil
}

type balanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type remainingDaysResponse struct {
	RemainingDays int `json:"remaining_days"`
}

type submitRequest struct {
	Indications       []int64 `json:"indications"`
	IgnorePeriod      bool    `json:"ignore_period"`
	IgnoreIndications bool    `json:"ignore_indications"`
}

type submitResponse struct {
	Comment string `json:"comment"`
}

type calculateResponse struct {
	Period      string           `json:"period"`
	Charged     decimal.Decimal  `json:"charged"`
	Indications map[string]int64 `json:"indications"`
	Comment     string           `json:"comment"`
}

func (d calculateResponse) toDomain() (*domain.ChargeCalculation, error) {
	period, err := parseWireDate(d.Period)
	if err != nil {
		return nil, fmt.Errorf("calculation: period: %w", err)
	}
	return &domain.ChargeCalculation{
		Period:      period,
		Charged:     d.Charged,
		Indications: d.Indications,
		Comment:     d.Comment,
	}, nil
}

func parseWireDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(wireDateLayout, s)
}
