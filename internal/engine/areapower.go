package engine

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/greenloan/validator-cli/internal/model"
)

// CheckTypeAreaPower tags results of the roof-area to rated-power check.
const CheckTypeAreaPower = "AREA_POWER_RATIO"

// Ratio bands in m²/kWp. The OK band is inclusive on both ends; the marginal
// band is inclusive on both ends outside the OK band.
const (
	areaRatioOKMin       = 4.0
	areaRatioOKMax       = 10.0
	areaRatioMarginalMin = 3.0
	areaRatioMarginalMax = 12.0
)

const areaPowerConfidence = 0.85

// AreaPowerRule checks that the roof area per kWp of installed power falls
// inside the plausible range for PV installations.
type AreaPowerRule struct{}

// NewAreaPowerRule creates the area/power ratio check.
func NewAreaPowerRule() *AreaPowerRule {
	return &AreaPowerRule{}
}

// ID implements Rule.
func (r *AreaPowerRule) ID() string { return "CHK-AREA" }

// Evaluate implements Rule. Not applicable unless both roof area and a
// positive declared power are present.
func (r *AreaPowerRule) Evaluate(_ context.Context, facts []model.Fact) (*model.VerificationResult, error) {
	areaFact := model.First(facts, model.FieldRoofArea)
	powerFact := model.First(facts, model.FieldDeclaredPower)
	if areaFact == nil || powerFact == nil {
		return nil, nil
	}

	area, ok := areaFact.Value.AsNumber()
	if !ok {
		return nil, eris.Errorf("areapower: %s is not numeric", model.FieldRoofArea)
	}
	power, ok := powerFact.Value.AsNumber()
	if !ok {
		return nil, eris.Errorf("areapower: %s is not numeric", model.FieldDeclaredPower)
	}
	if power <= 0 {
		return nil, nil
	}

	ratio := area / power
	result, severity := classifyAreaRatio(ratio)

	return &model.VerificationResult{
		CheckID:   r.ID(),
		CheckType: CheckTypeAreaPower,
		Inputs: map[string]any{
			"area_m2":   area,
			"power_kwp": power,
		},
		Outputs: map[string]any{
			"ratio_m2_per_kwp": ratio,
		},
		Result:     result,
		Severity:   severity,
		Confidence: areaPowerConfidence,
		Why: fmt.Sprintf("Roof area %.0f m2 over %.1f kWp gives %.1f m2/kWp (typical range %.0f to %.0f)",
			area, power, ratio, areaRatioOKMin, areaRatioOKMax),
		PagesToVerify: pageUnion(areaFact.Evidence, powerFact.Evidence),
		Evidence:      append(append([]model.Evidence{}, areaFact.Evidence...), powerFact.Evidence...),
	}, nil
}

func classifyAreaRatio(ratio float64) (model.CheckResult, model.Severity) {
	switch {
	case ratio >= areaRatioOKMin && ratio <= areaRatioOKMax:
		return model.CheckOK, model.SeverityOK
	case ratio >= areaRatioMarginalMin && ratio <= areaRatioMarginalMax:
		return model.CheckMarginal, model.SeverityMedium
	default:
		return model.CheckOutlier, model.SeverityHigh
	}
}
