package engine

import (
	"math"
	"sort"

	"github.com/greenloan/validator-cli/internal/model"
)

// Traffic-light thresholds on the sub-score average.
const (
	lightGreenMin  = 70.0
	lightYellowMin = 45.0
)

const highCompletenessPenalty = 20

// buildScoreCard reduces facts, verifications, and flags into the three
// sub-scores and the traffic light. Pure derivation, computed last.
func buildScoreCard(facts []model.Fact, results []model.VerificationResult, flags []model.RedFlag) model.ScoreCard {
	found := presentFields(facts)

	coverage := evidenceCoverage(found)
	consistency := consistencyScore(flags)
	feasibility := feasibilityScore(results)

	avg := float64(coverage+consistency+feasibility) / 3
	light := model.LightRed
	switch {
	case avg >= lightGreenMin:
		light = model.LightGreen
	case avg >= lightYellowMin:
		light = model.LightYellow
	}

	return model.ScoreCard{
		EvidenceCoverage: coverage,
		Consistency:      consistency,
		Feasibility:      feasibility,
		TrafficLight:     light,
		PagesToVerify:    flagPageUnion(flags),
		MissingData:      missingData(found),
	}
}

// evidenceCoverage is the share of required and important fields found,
// floored to an integer percentage.
func evidenceCoverage(found map[string]bool) int {
	tracked := len(requiredFields) + len(importantFields)
	hits := 0
	for _, field := range requiredFields {
		if found[field] {
			hits++
		}
	}
	for _, field := range importantFields {
		if found[field] {
			hits++
		}
	}
	return hits * 100 / tracked
}

// consistencyScore penalizes each HIGH completeness flag.
func consistencyScore(flags []model.RedFlag) int {
	score := 100
	for _, f := range flags {
		if f.Category == model.CategoryCompleteness && f.Severity == model.SeverityHigh {
			score -= highCompletenessPenalty
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// feasibilityScore starts at 100 and applies an independent cap per degraded
// verification result; the final score is the minimum of all caps, floored
// at 0. Extends uniformly to any future rule: unknown check types cap by
// result class like the area/power check.
func feasibilityScore(results []model.VerificationResult) int {
	feasibility := 100.0
	for _, res := range results {
		var limit float64
		switch {
		case res.CheckType == CheckTypeYieldSanity && res.DeltaPct != nil:
			limit = yieldFeasibilityCap(math.Abs(*res.DeltaPct))
		case res.Result == model.CheckOutlier:
			limit = 50
		case res.Result == model.CheckMarginal:
			limit = 75
		default:
			continue
		}
		if limit < feasibility {
			feasibility = limit
		}
	}
	if feasibility < 0 {
		feasibility = 0
	}
	return int(math.Floor(feasibility))
}

// yieldFeasibilityCap is the piecewise penalty on |delta_pct|, continuous at
// the band boundaries (cap(10) = 80, cap(15) = 60).
func yieldFeasibilityCap(absDelta float64) float64 {
	switch {
	case absDelta < yieldOKBandPct:
		return 100
	case absDelta < yieldMarginalBandPct:
		return 80 - (absDelta-yieldOKBandPct)*4
	default:
		return math.Max(0, 60-(absDelta-yieldMarginalBandPct)*2)
	}
}

// flagPageUnion is the sorted union of all flags' pages.
func flagPageUnion(flags []model.RedFlag) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, f := range flags {
		for _, p := range f.PagesToVerify {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	sort.Ints(pages)
	return pages
}

// missingData lists the tracked fields not found, required first, then
// important, each in declared order.
func missingData(found map[string]bool) []string {
	missing := []string{}
	for _, field := range requiredFields {
		if !found[field] {
			missing = append(missing, field)
		}
	}
	for _, field := range importantFields {
		if !found[field] {
			missing = append(missing, field)
		}
	}
	return missing
}
