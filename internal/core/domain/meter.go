package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Meter is the common surface of all meter variants attached to an account.
// Concrete variants are *ElectricityMeter and *GenericMeter; callers branch
// on the variant (or on the capability interfaces below), never on
// provider-side type strings.
type Meter interface {
	MeterCode() string
	AccountCode() string
	RemainingSubmitDays() int
	// CurrentStatus returns the provider-reported status, or "" when the
	// provider reports none.
	CurrentStatus() string
}

// SubmittableMeter is implemented by meter variants whose readings can be
// pushed to the provider.
type SubmittableMeter interface {
	Meter
	// Baseline resolves the per-tariff baseline used for incremental
	// submission: the submitted value when one exists for the tariff,
	// otherwise the last known value, otherwise zero.
	Baseline() []int64
	// SubmitPeriod returns the bounds of the current submission window.
	SubmitPeriod() (start, end time.Time)
}

// CalculableMeter is implemented by meter variants that support what-if
// charge calculation.
type CalculableMeter interface {
	Meter
	Baseline() []int64
}

// ElectricityMeter is the multi-tariff electricity variant. Indication
// slices are ordered by tariff zone (index 0 is tariff 1).
type ElectricityMeter struct {
	Code          string
	Account       string
	Status        string
	RemainingDays int
	InstallDate   time.Time
	PeriodStart   time.Time
	PeriodEnd     time.Time

	LastIndications      []int64  // last accepted value per tariff
	SubmittedIndications []*int64 // value submitted this period, nil when none
	TodayIndications     []int64  // today's provisional value per tariff
}

func (m *ElectricityMeter) MeterCode() string        { return m.Code }
func (m *ElectricityMeter) AccountCode() string      { return m.Account }
func (m *ElectricityMeter) RemainingSubmitDays() int { return m.RemainingDays }
func (m *ElectricityMeter) CurrentStatus() string    { return m.Status }

func (m *ElectricityMeter) SubmitPeriod() (time.Time, time.Time) {
	return m.PeriodStart, m.PeriodEnd
}

// Baseline prefers submitted indications over last indications per tariff.
func (m *ElectricityMeter) Baseline() []int64 {
	n := len(m.LastIndications)
	if len(m.SubmittedIndications) > n {
		n = len(m.SubmittedIndications)
	}
	baseline := make([]int64, n)
	for i := range baseline {
		if i < len(m.SubmittedIndications) && m.SubmittedIndications[i] != nil {
			baseline[i] = *m.SubmittedIndications[i]
			continue
		}
		if i < len(m.LastIndications) {
			baseline[i] = m.LastIndications[i]
		}
	}
	return baseline
}

// Reading is one category-keyed reading record of a generic meter.
type Reading struct {
	Name  string
	Value decimal.Decimal
	Cost  decimal.Decimal
	Unit  string
}

// GenericMeter covers non-electricity meters: a mapping from reading
// category to its last reading. It carries no submission capability.
type GenericMeter struct {
	Code          string
	Account       string
	Status        string
	RemainingDays int
	Readings      map[string]Reading
}

func (m *GenericMeter) MeterCode() string        { return m.Code }
func (m *GenericMeter) AccountCode() string      { return m.Account }
func (m *GenericMeter) RemainingSubmitDays() int { return m.RemainingDays }
func (m *GenericMeter) CurrentStatus() string    { return m.Status }

var (
	_ Meter            = (*ElectricityMeter)(nil)
	_ SubmittableMeter = (*ElectricityMeter)(nil)
	_ CalculableMeter  = (*ElectricityMeter)(nil)
	_ Meter            = (*GenericMeter)(nil)
)
