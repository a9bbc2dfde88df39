package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/greenloan/validator-cli/internal/model"
)

// CheckTypeYieldSanity tags results of the declared-vs-estimated yield check.
const CheckTypeYieldSanity = "PVGIS_YIELD_SANITY"

// Classification bands on |delta_pct| for the yield check. Half-open: a
// deviation of exactly 10% is marginal, exactly 15% is an outlier.
const (
	yieldOKBandPct       = 10.0
	yieldMarginalBandPct = 15.0
)

// Result confidence depending on how the declared yield was obtained.
const (
	yieldConfidenceDeclared = 0.9
	yieldConfidenceImplied  = 0.75
)

// YieldRule compares the declared specific yield against an independent
// irradiance estimate for the resolved project location.
type YieldRule struct {
	resolver  LocationResolver
	estimator IrradianceEstimator
}

// NewYieldRule creates the yield sanity check with its two collaborators.
func NewYieldRule(resolver LocationResolver, estimator IrradianceEstimator) *YieldRule {
	return &YieldRule{resolver: resolver, estimator: estimator}
}

// ID implements Rule.
func (r *YieldRule) ID() string { return "CHK-YIELD" }

// Evaluate implements Rule. Not applicable unless declared power, a declared
// or implied specific yield, a resolvable location, and an irradiance
// estimate are all available.
func (r *YieldRule) Evaluate(ctx context.Context, facts []model.Fact) (*model.VerificationResult, error) {
	powerFact := model.First(facts, model.FieldDeclaredPower)
	if powerFact == nil {
		return nil, nil
	}
	power, ok := powerFact.Value.AsNumber()
	if !ok {
		return nil, eris.Errorf("yield: %s is not numeric", model.FieldDeclaredPower)
	}
	if power <= 0 {
		return nil, nil
	}

	declared, yieldFact, source, confidence, err := declaredYield(facts, power)
	if err != nil || yieldFact == nil {
		return nil, err
	}

	locFact := model.First(facts, model.FieldProjectLocation)
	if locFact == nil {
		return nil, nil
	}
	locText, ok := locFact.Value.AsText()
	if !ok || locText == "" {
		return nil, nil
	}

	if r.resolver == nil || r.estimator == nil {
		return nil, nil
	}
	loc, err := r.resolver.Resolve(ctx, locText)
	if err != nil || loc == nil {
		return nil, nil
	}
	est, err := r.estimator.Estimate(ctx, loc.Lat, loc.Lon, power)
	if err != nil || est == nil || est.SpecificYield <= 0 {
		return nil, nil
	}

	delta := (declared - est.SpecificYield) / est.SpecificYield * 100
	result, severity := classifyYieldDelta(delta)

	direction := "above"
	if delta < 0 {
		direction = "below"
	}

	return &model.VerificationResult{
		CheckID:   r.ID(),
		CheckType: CheckTypeYieldSanity,
		Inputs: map[string]any{
			"declared_kwh_per_kwp":  declared,
			"estimated_kwh_per_kwp": est.SpecificYield,
			"power_kwp":             power,
			"location":              locText,
			"yield_source":          source,
		},
		Outputs: map[string]any{
			"lat": loc.Lat,
			"lon": loc.Lon,
		},
		Result:     result,
		Severity:   severity,
		DeltaPct:   &delta,
		Confidence: confidence,
		Why: fmt.Sprintf("Declared specific yield %.1f kWh/kWp vs estimated %.1f kWh/kWp: %+.1f%% (%s estimate)",
			declared, est.SpecificYield, delta, direction),
		PagesToVerify: pageUnion(powerFact.Evidence, yieldFact.Evidence),
		Evidence:      append(append([]model.Evidence{}, powerFact.Evidence...), yieldFact.Evidence...),
	}, nil
}

// declaredYield returns the specific yield in kWh/kWp/year, preferring the
// directly declared value and falling back to one implied from the declared
// annual energy. The implied path lowers result confidence.
func declaredYield(facts []model.Fact, power float64) (float64, *model.Fact, string, float64, error) {
	if f := model.First(facts, model.FieldDeclaredYield); f != nil {
		v, ok := f.Value.AsNumber()
		if !ok {
			return 0, nil, "", 0, eris.Errorf("yield: %s is not numeric", model.FieldDeclaredYield)
		}
		return v, f, "declared", yieldConfidenceDeclared, nil
	}
	if f := model.First(facts, model.FieldAnnualEnergy); f != nil {
		v, ok := f.Value.AsNumber()
		if !ok {
			return 0, nil, "", 0, eris.Errorf("yield: %s is not numeric", model.FieldAnnualEnergy)
		}
		return v * 1000 / power, f, "implied from annual energy", yieldConfidenceImplied, nil
	}
	return 0, nil, "", 0, nil
}

// classifyYieldDelta maps |delta_pct| onto the half-open classification bands.
func classifyYieldDelta(delta float64) (model.CheckResult, model.Severity) {
	switch abs := math.Abs(delta); {
	case abs < yieldOKBandPct:
		return model.CheckOK, model.SeverityOK
	case abs < yieldMarginalBandPct:
		return model.CheckMarginal, model.SeverityMedium
	default:
		return model.CheckOutlier, model.SeverityHigh
	}
}

// pageUnion returns the sorted union of evidence page numbers.
func pageUnion(groups ...[]model.Evidence) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, group := range groups {
		for _, ev := range group {
			if !seen[ev.PageNo] {
				seen[ev.PageNo] = true
				pages = append(pages, ev.PageNo)
			}
		}
	}
	sort.Ints(pages)
	return pages
}
