package entity

import (
	"context"
	"fmt"
	"sync"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/utils/templating"
)

// MeterEntity projects one Meter. The attribute layout depends on the meter
// variant.
type MeterEntity struct {
	base
	nameFormat string

	mu    sync.RWMutex
	meter domain.Meter
}

func NewMeterEntity(meter domain.Meter, nameFormat string) *MeterEntity {
	e := &MeterEntity{
		nameFormat: nameFormat,
		meter:      meter,
	}
	e.icon = "mdi:counter"
	return e
}

// SetMeter replaces the backing meter, preserving entity identity.
func (e *MeterEntity) SetMeter(meter domain.Meter) {
	e.mu.Lock()
	e.meter = meter
	e.mu.Unlock()
}

func (e *MeterEntity) Meter() domain.Meter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.meter
}

func (e *MeterEntity) UniqueID() string {
	return "meter_" + e.Meter().MeterCode()
}

func (e *MeterEntity) Name() string {
	code := e.Meter().MeterCode()
	name, err := templating.Render(e.nameFormat, map[string]string{"code": code})
	if err != nil {
		return "Meter " + code
	}
	return name
}

func (e *MeterEntity) Snapshot() Snapshot {
	return e.base.snapshot(e.UniqueID(), e.Name())
}

// Refresh recomputes the derived state with exhaustive variant dispatch.
func (e *MeterEntity) Refresh(ctx context.Context) error {
	meter := e.Meter()

	attrs := map[string]any{
		"meter_code":     meter.MeterCode(),
		"account_code":   meter.AccountCode(),
		"remaining_days": meter.RemainingSubmitDays(),
	}

	switch m := meter.(type) {
	case *domain.ElectricityMeter:
		attrs["install_date"] = m.InstallDate.Format("2006-01-02")
		attrs["submit_period_start"] = m.PeriodStart.Format("2006-01-02")
		attrs["submit_period_end"] = m.PeriodEnd.Format("2006-01-02")

		for i, value := range m.LastIndications {
			attrs[fmt.Sprintf("last_value_t%d", i+1)] = value
		}
		for i, value := range m.SubmittedIndications {
			if value != nil {
				attrs[fmt.Sprintf("submitted_value_t%d", i+1)] = *value
			}
		}
		for i, value := range m.TodayIndications {
			attrs[fmt.Sprintf("today_value_t%d", i+1)] = value
		}

	case *domain.GenericMeter:
		for key, reading := range m.Readings {
			attrs["last_value_"+key] = reading.Value.String()
			attrs["last_name_"+key] = reading.Name
			attrs["last_cost_"+key] = reading.Cost.String()
			attrs["last_unit_"+key] = reading.Unit
		}

	default:
		return fmt.Errorf("unknown meter variant %T for meter %s", meter, meter.MeterCode())
	}

	state := meter.CurrentStatus()
	if state == "" {
		state = StateOK
	}
	e.setDerived(state, "", attrs)
	return nil
}
