package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Field identifiers for the PV extraction vocabulary. Unknown identifiers
// coming back from the extraction oracle are preserved, not rejected.
const (
	FieldProjectLocation = "project_location_text"
	FieldDeclaredPower   = "declared_power_kwp"
	FieldSystemType      = "system_type"
	FieldDeclaredYield   = "declared_yield_kwh_per_kwp"
	FieldAnnualEnergy    = "declared_annual_energy_mwh"
	FieldCapexTotal      = "capex_total"
	FieldRoofArea        = "roof_area_m2"
	FieldPanelsCount     = "panels_count"
	FieldModuleWattPeak  = "module_watt_peak"
	FieldInverterPower   = "inverter_power_kw"
	FieldGridConnection  = "grid_connection_status"
	FieldSupplierEPC     = "supplier_epc"
)

// KnownFields lists the extraction vocabulary with a short description per
// field, in prompt order.
var KnownFields = []struct {
	Name        string
	Description string
}{
	{FieldProjectLocation, "project address or location"},
	{FieldDeclaredPower, "installed capacity in kWp"},
	{FieldSystemType, "installation type (rooftop/ground-mounted)"},
	{FieldDeclaredYield, "forecast specific yield in kWh/kWp/year"},
	{FieldAnnualEnergy, "forecast annual energy production in MWh"},
	{FieldCapexTotal, "total investment cost"},
	{FieldRoofArea, "roof area in m2"},
	{FieldPanelsCount, "number of panels"},
	{FieldModuleWattPeak, "module rating in Wp"},
	{FieldInverterPower, "inverter power in kW"},
	{FieldGridConnection, "grid connection status"},
	{FieldSupplierEPC, "EPC contractor or supplier"},
}

// Evidence is a page-anchored quotation supporting a fact or a verification.
type Evidence struct {
	PageNo  int    `json:"page_no"`
	Snippet string `json:"snippet"`
}

// Value is the optional value of a fact: absent, a number, or free text.
// The zero Value is absent. A present zero ("declared_yield_kwh_per_kwp": 0)
// is distinct from absent.
type Value struct {
	kind valueKind
	num  float64
	text string
}

type valueKind int

const (
	valueAbsent valueKind = iota
	valueNumber
	valueText
)

// Number returns a present numeric Value.
func Number(f float64) Value { return Value{kind: valueNumber, num: f} }

// Text returns a present textual Value.
func Text(s string) Value { return Value{kind: valueText, text: s} }

// Present reports whether the value was found in the document.
func (v Value) Present() bool { return v.kind != valueAbsent }

// AsNumber returns the value as a float64. Textual values are parsed; a
// non-numeric text returns false so callers can treat it as malformed.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case valueNumber:
		return v.num, true
	case valueText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsText returns the value as display text.
func (v Value) AsText() (string, bool) {
	switch v.kind {
	case valueText:
		return v.text, true
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	default:
		return "", false
	}
}

// MarshalJSON encodes absent as null, numbers as JSON numbers, text as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNumber:
		return json.Marshal(v.num)
	case valueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, JSON numbers, and strings. Any other JSON value
// from the (untrusted) extraction oracle is preserved as raw text.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = Value{}
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*v = Number(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Text(s)
		return nil
	}
	*v = Text(trimmed)
	return nil
}

// Fact is a single extracted data point with provenance. Facts are produced
// by the extraction oracle and read-only afterwards.
type Fact struct {
	Field      string     `json:"field"`
	Value      Value      `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	Confidence float64    `json:"confidence"`
	Evidence   []Evidence `json:"evidence,omitempty"`
}

// Validate checks the fact's invariants: confidence in [0,1] and positive
// evidence page numbers.
func (f Fact) Validate() error {
	if f.Field == "" {
		return eris.New("model: fact has empty field")
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return eris.Errorf("model: fact %s confidence %v outside [0,1]", f.Field, f.Confidence)
	}
	for _, ev := range f.Evidence {
		if ev.PageNo < 1 {
			return eris.Errorf("model: fact %s evidence page %d is not positive", f.Field, ev.PageNo)
		}
	}
	return nil
}

// First returns the first fact for the given field whose value is present.
// Extraction output may contain duplicate field entries; first match wins.
func First(facts []Fact, field string) *Fact {
	for i := range facts {
		if facts[i].Field == field && facts[i].Value.Present() {
			return &facts[i]
		}
	}
	return nil
}
