package engine

import (
	"fmt"
	"strings"

	"github.com/greenloan/validator-cli/internal/model"
)

// requiredFields must be present in every loan-application document. A
// missing one is a HIGH completeness flag.
var requiredFields = []string{
	model.FieldProjectLocation,
	model.FieldDeclaredPower,
	model.FieldSystemType,
}

// importantFields are expected but not mandatory; a missing one is a MEDIUM
// completeness flag.
var importantFields = []string{
	model.FieldDeclaredYield,
	model.FieldCapexTotal,
	model.FieldRoofArea,
}

// buildFlags derives red flags from missing mandatory/important facts and
// from degraded verification results, in that fixed order. Flag identifiers
// are deterministic functions of field or check identity.
func buildFlags(facts []model.Fact, results []model.VerificationResult) []model.RedFlag {
	found := presentFields(facts)
	var flags []model.RedFlag

	for _, field := range requiredFields {
		if found[field] {
			continue
		}
		flags = append(flags, model.RedFlag{
			FlagID:       missingFlagID(field),
			Severity:     model.SeverityHigh,
			Category:     model.CategoryCompleteness,
			Title:        "Missing: " + fieldTitle(field),
			Description:  fmt.Sprintf("Required field %q was not found in the document.", field),
			WhyItMatters: "Verification checks cannot run without it, so the application cannot be assessed.",
			// Front matter is the most likely place for the missing datum.
			PagesToVerify:     []int{1, 2},
			RecommendedAction: "Request a revised document with complete project data.",
		})
	}

	for _, field := range importantFields {
		if found[field] {
			continue
		}
		flags = append(flags, model.RedFlag{
			FlagID:            missingFlagID(field),
			Severity:          model.SeverityMedium,
			Category:          model.CategoryCompleteness,
			Title:             "Missing: " + fieldTitle(field),
			Description:       fmt.Sprintf("Important field %q was not found in the document.", field),
			WhyItMatters:      "The assessment is less reliable without it.",
			PagesToVerify:     []int{},
			RecommendedAction: "Consider requesting this data from the applicant.",
		})
	}

	for _, res := range results {
		if res.Severity != model.SeverityMedium && res.Severity != model.SeverityHigh {
			continue
		}
		flags = append(flags, verificationFlag(res))
	}

	return flags
}

// verificationFlag turns a degraded verification result into a feasibility
// flag, carrying forward the result's pages and evidence.
func verificationFlag(res model.VerificationResult) model.RedFlag {
	flag := model.RedFlag{
		FlagID:            "RF-" + res.CheckID,
		Severity:          res.Severity,
		Category:          model.CategoryFeasibility,
		Description:       res.Why,
		PagesToVerify:     res.PagesToVerify,
		Evidence:          res.Evidence,
		RecommendedAction: "Verify the declared figures against the cited pages.",
	}
	if res.Severity == model.SeverityHigh {
		flag.RecommendedAction = "Manual verification required before approval."
	}

	switch res.CheckType {
	case CheckTypeYieldSanity:
		direction, article := "optimistic", "An"
		if res.DeltaPct != nil && *res.DeltaPct < 0 {
			direction, article = "pessimistic", "A"
		}
		flag.Title = fmt.Sprintf("Declared yield looks %s", direction)
		flag.WhyItMatters = fmt.Sprintf("%s %s yield forecast distorts the projected loan repayment capacity.", article, direction)
	case CheckTypeAreaPower:
		flag.Title = "Power-to-area ratio unusual"
		flag.WhyItMatters = "The declared power may not physically fit the stated area, or the area is overstated."
	default:
		flag.Title = "Check flagged: " + res.CheckType
		flag.WhyItMatters = "An independent sanity check deviated from reference data."
	}
	return flag
}

// presentFields returns the set of fields with a present value.
func presentFields(facts []model.Fact) map[string]bool {
	found := make(map[string]bool, len(facts))
	for _, f := range facts {
		if f.Value.Present() {
			found[f.Field] = true
		}
	}
	return found
}

func missingFlagID(field string) string {
	return "RF-MISSING-" + strings.ToUpper(field)
}

func fieldTitle(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
