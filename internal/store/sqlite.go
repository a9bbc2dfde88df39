package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/greenloan/validator-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	doc_id        TEXT NOT NULL UNIQUE,
	file_name     TEXT NOT NULL,
	pages         INTEGER NOT NULL,
	traffic_light TEXT NOT NULL,
	evidence      INTEGER NOT NULL,
	consistency   INTEGER NOT NULL,
	feasibility   INTEGER NOT NULL,
	red_flags     INTEGER NOT NULL,
	report        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reports_traffic_light ON reports(traffic_light);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReport inserts the full report, replacing any previous report for the
// same document.
func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.AnalysisReport) (*ReportSummary, error) {
	if report == nil || report.Document.DocID == "" {
		return nil, eris.New("sqlite: report has no document id")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal report")
	}

	summary := &ReportSummary{
		ID:           uuid.New().String(),
		DocID:        report.Document.DocID,
		FileName:     report.Document.Filename,
		Pages:        report.Document.Pages,
		TrafficLight: report.ScoreCard.TrafficLight,
		Evidence:     report.ScoreCard.EvidenceCoverage,
		Consistency:  report.ScoreCard.Consistency,
		Feasibility:  report.ScoreCard.Feasibility,
		RedFlags:     len(report.RedFlags),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, doc_id, file_name, pages, traffic_light, evidence, consistency, feasibility, red_flags, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET
		   file_name = excluded.file_name,
		   pages = excluded.pages,
		   traffic_light = excluded.traffic_light,
		   evidence = excluded.evidence,
		   consistency = excluded.consistency,
		   feasibility = excluded.feasibility,
		   red_flags = excluded.red_flags,
		   report = excluded.report,
		   created_at = excluded.created_at`,
		summary.ID, summary.DocID, summary.FileName, summary.Pages,
		string(summary.TrafficLight), summary.Evidence, summary.Consistency,
		summary.Feasibility, summary.RedFlags, string(payload), summary.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: save report %s", summary.DocID)
	}
	return summary, nil
}

// GetReport returns the full report for a document, or nil if none is stored.
func (s *SQLiteStore) GetReport(ctx context.Context, docID string) (*model.AnalysisReport, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT report FROM reports WHERE doc_id = ?`, docID,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", docID)
	}

	var report model.AnalysisReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal report %s", docID)
	}
	return &report, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]ReportSummary, error) {
	query := `SELECT id, doc_id, file_name, pages, traffic_light, evidence, consistency, feasibility, red_flags, created_at
	          FROM reports WHERE 1=1`
	var args []any

	if filter.TrafficLight != "" {
		query += ` AND traffic_light = ?`
		args = append(args, string(filter.TrafficLight))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var summaries []ReportSummary
	for rows.Next() {
		var sm ReportSummary
		var light string
		if err := rows.Scan(&sm.ID, &sm.DocID, &sm.FileName, &sm.Pages, &light,
			&sm.Evidence, &sm.Consistency, &sm.Feasibility, &sm.RedFlags, &sm.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report summary")
		}
		sm.TrafficLight = model.TrafficLight(light)
		summaries = append(summaries, sm)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) DeleteReport(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE doc_id = ?`, docID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete report %s", docID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("report not found: %s", docID)
	}
	return nil
}
