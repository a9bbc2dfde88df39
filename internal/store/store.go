package store

import (
	"context"
	"time"

	"github.com/greenloan/validator-cli/internal/model"
)

// ReportFilter specifies criteria for listing reports.
type ReportFilter struct {
	TrafficLight model.TrafficLight `json:"traffic_light,omitempty"`
	Limit        int                `json:"limit,omitempty"`
	Offset       int                `json:"offset,omitempty"`
}

// ReportSummary is the list-view projection of a stored report.
type ReportSummary struct {
	ID           string             `json:"id"`
	DocID        string             `json:"doc_id"`
	FileName     string             `json:"file_name"`
	Pages        int                `json:"pages"`
	TrafficLight model.TrafficLight `json:"traffic_light"`
	Evidence     int                `json:"evidence_coverage_pct"`
	Consistency  int                `json:"consistency_score"`
	Feasibility  int                `json:"feasibility_score"`
	RedFlags     int                `json:"red_flags"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Store defines the persistence interface for analysis reports.
type Store interface {
	SaveReport(ctx context.Context, report *model.AnalysisReport) (*ReportSummary, error)
	GetReport(ctx context.Context, docID string) (*model.AnalysisReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]ReportSummary, error)
	DeleteReport(ctx context.Context, docID string) error

	Migrate(ctx context.Context) error
	Close() error
}
