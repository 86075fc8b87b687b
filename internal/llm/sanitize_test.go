package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare json", in: `  {"a":1}  `, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{name: "single line fence", in: "```json {\"a\":1}```", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestNormalizeAndSanitizeJSON(t *testing.T) {
	raw := []byte(`{
		"project_name": "  ค่ายวิชาการ ",
		"responsible_person": null,
		"confidence": 0.9,
		"budget_items": [
			{"activity_name": " Training ", "description": "Venue", "amount": "1,500", "unit": "THB"},
			null,
			{"activity_name": "Setup", "amount": 200}
		]
	}`)

	out, dropped, err := NormalizeAndSanitizeJSON(raw, nil)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "ค่ายวิชาการ", got["project_name"])
	assert.Equal(t, "", got["responsible_person"])
	assert.NotContains(t, got, "confidence")

	items := got["budget_items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Training", first["activity_name"])
	assert.Equal(t, 1500.0, first["amount"])
	assert.NotContains(t, first, "unit")
	second := items[1].(map[string]any)
	assert.Equal(t, "", second["description"])

	assert.Contains(t, dropped, "confidence(unknown)")
	assert.Contains(t, dropped, "budget_items[1](type)")
}

func TestNormalizeAndSanitizeJSON_MissingItems(t *testing.T) {
	out, _, err := NormalizeAndSanitizeJSON([]byte(`{"project_name":"x","responsible_person":"y"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"project_name":"x","responsible_person":"y","budget_items":[]}`, string(out))
}

func TestNormalizeAndSanitizeJSON_RejectsNonJSON(t *testing.T) {
	_, _, err := NormalizeAndSanitizeJSON([]byte("not json"), nil)
	assert.Error(t, err)
}

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{in: 1000.0, want: 1000, wantOK: true},
		{in: "1,500", want: 1500, wantOK: true},
		{in: "๑,๕๐๐ บาท", want: 1500, wantOK: true},
		{in: "฿2,000.50", want: 2000.5, wantOK: true},
		{in: "300 บาท", want: 300, wantOK: true},
		{in: "lots", want: 0, wantOK: false},
		{in: nil, want: 0, wantOK: false},
	}
	for _, tt := range tests {
		got, ok := coerceAmount(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
