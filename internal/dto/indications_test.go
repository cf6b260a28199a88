package dto_test

import (
	"encoding/json"
	"testing"

	"github.com/enersync/utility_sync_app/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicationValues_SequenceForm(t *testing.T) {
	var v dto.IndicationValues
	require.NoError(t, json.Unmarshal([]byte(`[100, 50]`), &v))
	assert.Equal(t, dto.IndicationValues{100, 50}, v)
}

func TestIndicationValues_MapForm(t *testing.T) {
	var v dto.IndicationValues
	require.NoError(t, json.Unmarshal([]byte(`{"2": 50, "1": 100}`), &v))
	assert.Equal(t, dto.IndicationValues{100, 50}, v)
}

func TestIndicationValues_Rejections(t *testing.T) {
	cases := map[string]string{
		"empty sequence":        `[]`,
		"too many values":       `[1, 2, 3, 4]`,
		"negative value":        `[100, -1]`,
		"gap in positions":      `{"1": 100, "3": 50}`,
		"position not at one":   `{"2": 50}`,
		"position out of range": `{"4": 50}`,
		"non-numeric position":  `{"one": 50}`,
		"negative value (map)":  `{"1": -5}`,
		"wrong payload type":    `"100"`,
		"too many values (map)": `{"1": 1, "2": 2, "3": 3, "4": 4}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var v dto.IndicationValues
			assert.Error(t, json.Unmarshal([]byte(payload), &v))
		})
	}
}

func TestNotificationSpec_BooleanForm(t *testing.T) {
	var n dto.NotificationSpec
	require.NoError(t, json.Unmarshal([]byte(`true`), &n))
	assert.True(t, n.Enabled)
	assert.Nil(t, n.Title)

	require.NoError(t, json.Unmarshal([]byte(`false`), &n))
	assert.False(t, n.Enabled)
}

func TestNotificationSpec_ObjectForm(t *testing.T) {
	var n dto.NotificationSpec
	require.NoError(t, json.Unmarshal([]byte(`{"title": "Pushed {indications}", "notification_id": "custom"}`), &n))
	assert.True(t, n.Enabled)
	require.NotNil(t, n.Title)
	assert.Equal(t, "Pushed {indications}", *n.Title)
	require.NotNil(t, n.NotificationID)
	assert.Equal(t, "custom", *n.NotificationID)
	assert.Nil(t, n.Message)
}

func TestIndicationsRequest_FullPayload(t *testing.T) {
	payload := `{
		"meter_code": "EM-1",
		"indications": {"1": 130, "2": 60},
		"incremental": true,
		"ignore_period": true,
		"create_notification": {"title": "custom"}
	}`
	var req dto.IndicationsRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))
	require.NotNil(t, req.MeterCode)
	assert.Equal(t, "EM-1", *req.MeterCode)
	assert.Equal(t, dto.IndicationValues{130, 60}, req.Indications)
	assert.True(t, req.Incremental)
	assert.True(t, req.IgnorePeriod)
	assert.True(t, req.CreateNotification.Enabled)
}
