// Package engine implements the verification and risk-scoring core: it
// cross-checks extracted facts against reference data and reduces the
// outcomes into red flags and a traffic-light scorecard.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/greenloan/validator-cli/internal/model"
)

// Location is a resolved project location.
type Location struct {
	Lat         float64
	Lon         float64
	Confidence  float64
	CountryCode string
}

// LocationResolver maps a free-text location to coordinates. A nil result
// with nil error means no match; errors mean the resolver is unavailable.
// Both read as "rule not applicable" inside the engine.
type LocationResolver interface {
	Resolve(ctx context.Context, text string) (*Location, error)
}

// Irradiance is an expected-production estimate for a location and rated power.
type Irradiance struct {
	AnnualEnergyKwh float64
	SpecificYield   float64 // kWh/kWp/year
	MonthlyKwh      []float64
}

// IrradianceEstimator estimates expected annual yield for coordinates and a
// rated power. Errors mean the estimator is unavailable.
type IrradianceEstimator interface {
	Estimate(ctx context.Context, lat, lon, peakPowerKwp float64) (*Irradiance, error)
}

// Rule is an independent, skippable check. Evaluate returns (nil, nil) when
// the rule's required facts or collaborators are unavailable, and an error
// only for malformed fact values; it must never abort the overall evaluation.
type Rule interface {
	ID() string
	Evaluate(ctx context.Context, facts []model.Fact) (*model.VerificationResult, error)
}

// Engine runs a fixed set of rules in registration order and aggregates the
// outcomes. It holds no mutable state across evaluations, so concurrent
// evaluations of different documents are independent.
type Engine struct {
	rules []Rule
}

// New creates an Engine with the given rules, evaluated in the given order.
func New(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Default creates an Engine with the standard rule set: yield sanity and
// area/power ratio. Either collaborator may be nil; rules that need it are
// then skipped.
func Default(resolver LocationResolver, estimator IrradianceEstimator) *Engine {
	return New(
		NewYieldRule(resolver, estimator),
		NewAreaPowerRule(),
	)
}

// Register appends a rule to the registry. Added rules feed the existing
// flag and scorecard aggregation without further wiring.
func (e *Engine) Register(r Rule) {
	e.rules = append(e.rules, r)
}

// Evaluate runs every registered rule against the fact set and derives red
// flags and the scorecard. It always returns a complete triple; insufficient
// data, unavailable collaborators, and malformed values only suppress the
// individual rule.
func (e *Engine) Evaluate(ctx context.Context, facts []model.Fact) ([]model.VerificationResult, []model.RedFlag, model.ScoreCard) {
	var results []model.VerificationResult
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, facts)
		if err != nil {
			zap.L().Debug("engine: rule not applicable",
				zap.String("rule", rule.ID()),
				zap.Error(err),
			)
			continue
		}
		if res == nil {
			continue
		}
		results = append(results, *res)
	}

	flags := buildFlags(facts, results)
	card := buildScoreCard(facts, results, flags)
	return results, flags, card
}
