package config_test

import (
	"testing"

	"github.com/enersync/utility_sync_app/internal/platform/config"
	"github.com/stretchr/testify/assert"
)

func TestMeterFilter_Allows(t *testing.T) {
	all := config.MeterFilter{All: true}
	assert.True(t, all.Allows("anything"))

	listed := config.MeterFilter{Codes: []string{"M1", "M2"}}
	assert.True(t, listed.Allows("M1"))
	assert.False(t, listed.Allows("M3"))
}

func TestInvoiceFilter_EnabledFor(t *testing.T) {
	assert.True(t, config.InvoiceFilter{Mode: config.InvoiceModeAll}.EnabledFor("1234"))
	assert.False(t, config.InvoiceFilter{Mode: config.InvoiceModeNone}.EnabledFor("1234"))

	listed := config.InvoiceFilter{Mode: config.InvoiceModeList, Codes: []string{"1234"}}
	assert.True(t, listed.EnabledFor("1234"))
	assert.False(t, listed.EnabledFor("5678"))
}

func TestConfig_MeterFilterFor(t *testing.T) {
	cfg := &config.Config{
		MeterFilters: map[string]config.MeterFilter{
			"1234": {Codes: []string{"M1"}},
		},
	}

	assert.False(t, cfg.MeterFilterFor("1234").All)
	// Accounts absent from a non-empty filter map are unfiltered.
	assert.True(t, cfg.MeterFilterFor("5678").All)

	empty := &config.Config{MeterFilters: map[string]config.MeterFilter{}}
	assert.True(t, empty.MeterFilterFor("1234").All)
}
