package dto

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// MaxIndications bounds how many reading values one request may carry.
const MaxIndications = 3

// IndicationValues is the polymorphic `indications` payload field: either a
// sequence of 1 to MaxIndications non-negative integers, or a mapping from
// tariff position ("1".."3") to a non-negative integer. The map form must
// cover contiguous positions starting at 1.
type IndicationValues []int64

func (v *IndicationValues) UnmarshalJSON(data []byte) error {
	var seq []int64
	if err := json.Unmarshal(data, &seq); err == nil {
		return v.fromSequence(seq)
	}

	var byPosition map[string]int64
	if err := json.Unmarshal(data, &byPosition); err != nil {
		return fmt.Errorf("indications must be a sequence or a position map")
	}
	return v.fromPositions(byPosition)
}

func (v *IndicationValues) fromSequence(seq []int64) error {
	if len(seq) < 1 || len(seq) > MaxIndications {
		return fmt.Errorf("indications must carry between 1 and %d values, got %d", MaxIndications, len(seq))
	}
	for i, value := range seq {
		if value < 0 {
			return fmt.Errorf("indication value at position %d is negative", i+1)
		}
	}
	*v = seq
	return nil
}

func (v *IndicationValues) fromPositions(byPosition map[string]int64) error {
	if len(byPosition) < 1 || len(byPosition) > MaxIndications {
		return fmt.Errorf("indications must carry between 1 and %d values, got %d", MaxIndications, len(byPosition))
	}

	positions := make([]int, 0, len(byPosition))
	for key := range byPosition {
		pos, err := strconv.Atoi(key)
		if err != nil || pos < 1 || pos > MaxIndications {
			return fmt.Errorf("invalid tariff position %q", key)
		}
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	values := make([]int64, 0, len(positions))
	for i, pos := range positions {
		if pos != i+1 {
			return fmt.Errorf("tariff positions must be contiguous starting at 1")
		}
		value := byPosition[strconv.Itoa(pos)]
		if value < 0 {
			return fmt.Errorf("indication value at position %d is negative", pos)
		}
		values = append(values, value)
	}
	*v = values
	return nil
}

// NotificationSpec is the polymorphic `create_notification` field: a plain
// boolean, or an object overriding the default notification fields. Override
// values are templates substituted against the result event's fields.
type NotificationSpec struct {
	Enabled        bool
	Title          *string
	Message        *string
	NotificationID *string
}

func (n *NotificationSpec) UnmarshalJSON(data []byte) error {
	var enabled bool
	if err := json.Unmarshal(data, &enabled); err == nil {
		*n = NotificationSpec{Enabled: enabled}
		return nil
	}

	var overrides struct {
		Title          *string `json:"title"`
		Message        *string `json:"message"`
		NotificationID *string `json:"notification_id"`
	}
	if err := json.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("create_notification must be a boolean or an object")
	}
	*n = NotificationSpec{
		Enabled:        true,
		Title:          overrides.Title,
		Message:        overrides.Message,
		NotificationID: overrides.NotificationID,
	}
	return nil
}

// IndicationsRequest is the shared payload of the push and calculate
// operations. Exactly one of EntityID/MeterCode identifies the meter; the
// mutual exclusion is enforced by a struct-level validation registered at
// route setup.
type IndicationsRequest struct {
	EntityID           *string          `json:"entity_id"`
	MeterCode          *string          `json:"meter_code"`
	Indications        IndicationValues `json:"indications" binding:"required"`
	IgnorePeriod       bool             `json:"ignore_period"`
	Incremental        bool             `json:"incremental"`
	CreateNotification NotificationSpec `json:"create_notification"`
}

// PushResultResponse mirrors the push-result event.
type PushResultResponse struct {
	EntityID    string  `json:"entity_id"`
	MeterCode   string  `json:"meter_code"`
	Indications []int64 `json:"indications"`
	Comment     string  `json:"comment"`
}

// CalculationResponse mirrors the calculation-result event.
type CalculationResponse struct {
	EntityID    string           `json:"entity_id"`
	MeterCode   string           `json:"meter_code"`
	Indications []int64          `json:"indications"`
	Period      string           `json:"period"`
	Charged     string           `json:"charged"`
	Breakdown   map[string]int64 `json:"indications_dict"`
	Comment     string           `json:"comment"`
}
