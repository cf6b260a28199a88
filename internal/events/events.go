// Package events defines the structured events emitted by the indication
// operations, one event kind per operation.
package events

import (
	"fmt"
	"strings"
)

// Event types fired on the bus.
const (
	TypePushResult        = "usync_push_result"
	TypeCalculationResult = "usync_calculation_result"
)

// PushResult is fired after a successful indication submission.
type PushResult struct {
	EntityID    string  `json:"entity_id"`
	MeterCode   string  `json:"meter_code"`
	Indications []int64 `json:"indications"`
	Comment     string  `json:"comment"`
}

// ToMap converts the payload into a bus-friendly map.
func (p PushResult) ToMap() map[string]any {
	return map[string]any{
		"entity_id":   p.EntityID,
		"meter_code":  p.MeterCode,
		"indications": p.Indications,
		"comment":     p.Comment,
	}
}

// Fields flattens the payload for notification template substitution.
func (p PushResult) Fields() map[string]string {
	return map[string]string{
		"entity_id":   p.EntityID,
		"meter_code":  p.MeterCode,
		"indications": joinValues(p.Indications),
		"comment":     p.Comment,
	}
}

// CalculationResult is fired after a successful what-if charge calculation.
type CalculationResult struct {
	EntityID    string           `json:"entity_id"`
	MeterCode   string           `json:"meter_code"`
	Indications []int64          `json:"indications"`
	Period      string           `json:"period"`
	Charged     string           `json:"charged"`
	Breakdown   map[string]int64 `json:"indications_dict"`
	Comment     string           `json:"comment"`
}

// ToMap converts the payload into a bus-friendly map.
func (c CalculationResult) ToMap() map[string]any {
	return map[string]any{
		"entity_id":        c.EntityID,
		"meter_code":       c.MeterCode,
		"indications":      c.Indications,
		"period":           c.Period,
		"charged":          c.Charged,
		"indications_dict": c.Breakdown,
		"comment":          c.Comment,
	}
}

// Fields flattens the payload for notification template substitution.
func (c CalculationResult) Fields() map[string]string {
	return map[string]string{
		"entity_id":   c.EntityID,
		"meter_code":  c.MeterCode,
		"indications": joinValues(c.Indications),
		"period":      c.Period,
		"charged":     c.Charged,
		"comment":     c.Comment,
	}
}

func joinValues(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}
