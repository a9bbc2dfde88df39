package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_PresentAbsent(t *testing.T) {
	var zero Value
	assert.False(t, zero.Present())

	assert.True(t, Number(0).Present(), "present zero is not absent")
	assert.True(t, Text("").Present())

	v, ok := Number(42.5).AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 42.5, v)

	_, ok = zero.AsNumber()
	assert.False(t, ok)
}

func TestValue_TextParsing(t *testing.T) {
	v, ok := Text(" 120.5 ").AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 120.5, v)

	_, ok = Text("rooftop").AsNumber()
	assert.False(t, ok)

	s, ok := Number(100).AsText()
	assert.True(t, ok)
	assert.Equal(t, "100", s)
}

func TestValue_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"null is absent", `null`, Value{}},
		{"number", `1050.5`, Number(1050.5)},
		{"string", `"Warsaw, Poland"`, Text("Warsaw, Poland")},
		{"zero is present", `0`, Number(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v Value
			require.NoError(t, json.Unmarshal([]byte(tt.in), &v))
			assert.Equal(t, tt.want, v)

			out, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}
}

func TestValue_UnmarshalUntrustedShapes(t *testing.T) {
	// The extraction oracle is untrusted; odd JSON shapes are kept as text.
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`[1,2]`), &v))
	assert.True(t, v.Present())
	s, _ := v.AsText()
	assert.Equal(t, "[1,2]", s)
}

func TestFact_Validate(t *testing.T) {
	ok := Fact{Field: FieldDeclaredPower, Value: Number(100), Confidence: 0.9,
		Evidence: []Evidence{{PageNo: 1, Snippet: "100 kWp"}}}
	assert.NoError(t, ok.Validate())

	assert.Error(t, Fact{Field: "", Confidence: 0.5}.Validate())
	assert.Error(t, Fact{Field: FieldDeclaredPower, Confidence: 1.2}.Validate())
	assert.Error(t, Fact{Field: FieldDeclaredPower, Confidence: -0.1}.Validate())
	assert.Error(t, Fact{Field: FieldDeclaredPower, Confidence: 0.5,
		Evidence: []Evidence{{PageNo: 0, Snippet: "x"}}}.Validate())

	// Unknown fields are preserved, not rejected.
	assert.NoError(t, Fact{Field: "battery_capacity_kwh", Value: Number(10), Confidence: 0.5}.Validate())
}

func TestFirst(t *testing.T) {
	facts := []Fact{
		{Field: FieldDeclaredPower, Confidence: 0.4},               // absent value
		{Field: FieldDeclaredPower, Value: Number(100), Confidence: 0.9},
		{Field: FieldDeclaredPower, Value: Number(999), Confidence: 0.9}, // duplicate
		{Field: FieldRoofArea, Value: Number(600), Confidence: 0.8},
	}

	f := First(facts, FieldDeclaredPower)
	require.NotNil(t, f)
	v, _ := f.Value.AsNumber()
	assert.Equal(t, 100.0, v, "first present-valued fact wins")

	assert.Nil(t, First(facts, FieldSystemType))
	assert.Nil(t, First(nil, FieldDeclaredPower))
}
