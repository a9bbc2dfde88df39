package model

import "time"

// CheckResult is the outcome class of a single verification check.
type CheckResult string

// Check outcomes.
const (
	CheckOK       CheckResult = "OK"
	CheckMarginal CheckResult = "MARGINAL"
	CheckOutlier  CheckResult = "OUTLIER"
)

// Severity grades a verification result or red flag.
type Severity string

// Severity levels. Verification results use OK/MEDIUM/HIGH; red flags use
// LOW/MEDIUM/HIGH/CRITICAL.
const (
	SeverityOK       Severity = "OK"
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// FlagCategory classifies the origin of a red flag.
type FlagCategory string

// Flag categories.
const (
	CategoryCompleteness FlagCategory = "DATA_COMPLETENESS"
	CategoryFeasibility  FlagCategory = "FEASIBILITY"
)

// TrafficLight is the aggregate risk classification.
type TrafficLight string

// Traffic light classifications.
const (
	LightGreen  TrafficLight = "GREEN"
	LightYellow TrafficLight = "YELLOW"
	LightRed    TrafficLight = "RED"
)

// VerificationResult is the outcome of one sanity check against the fact set.
// A check that lacks sufficient facts produces no result at all.
type VerificationResult struct {
	CheckID       string         `json:"check_id"`
	CheckType     string         `json:"check_type"`
	Inputs        map[string]any `json:"inputs"`
	Outputs       map[string]any `json:"outputs,omitempty"`
	Result        CheckResult    `json:"result"`
	Severity      Severity       `json:"severity"`
	DeltaPct      *float64       `json:"delta_pct,omitempty"`
	Confidence    float64        `json:"confidence"`
	Why           string         `json:"why"`
	PagesToVerify []int          `json:"pages_to_verify"`
	Evidence      []Evidence     `json:"evidence,omitempty"`
}

// RedFlag is a human-facing issue derived from missing data or a degraded
// verification result. Every flag traces back to a missing-field rule or a
// VerificationResult; flags are never created independently.
type RedFlag struct {
	FlagID            string       `json:"flag_id"`
	Severity          Severity     `json:"severity"`
	Category          FlagCategory `json:"category"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	WhyItMatters      string       `json:"why_it_matters,omitempty"`
	PagesToVerify     []int        `json:"pages_to_verify"`
	Evidence          []Evidence   `json:"evidence,omitempty"`
	RecommendedAction string       `json:"recommended_action"`
}

// ScoreCard is the three-axis numeric summary of an analysis run.
type ScoreCard struct {
	EvidenceCoverage int          `json:"evidence_coverage"`
	Consistency      int          `json:"consistency"`
	Feasibility      int          `json:"feasibility"`
	TrafficLight     TrafficLight `json:"traffic_light"`
	PagesToVerify    []int        `json:"pages_to_verify"`
	MissingData      []string     `json:"missing_data"`
}

// PageInfo describes a single page of the source document.
type PageInfo struct {
	PageNo    int  `json:"page_no"`
	HasText   bool `json:"has_text"`
	CharCount int  `json:"char_count"`
}

// DocumentMeta identifies an ingested document.
type DocumentMeta struct {
	DocID     string    `json:"doc_id"`
	Filename  string    `json:"filename"`
	SHA256    string    `json:"sha256"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisReport is the full output of one document analysis.
type AnalysisReport struct {
	Document      DocumentMeta         `json:"document"`
	PageInfo      []PageInfo           `json:"page_info"`
	Facts         []Fact               `json:"facts"`
	Verifications []VerificationResult `json:"verifications"`
	RedFlags      []RedFlag            `json:"red_flags"`
	ScoreCard     ScoreCard            `json:"scorecard"`
}
