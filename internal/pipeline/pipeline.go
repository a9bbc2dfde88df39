// Package pipeline orchestrates a full document analysis: ingest, anonymize,
// extract facts, run verifications, persist the report.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenloan/validator-cli/internal/engine"
	"github.com/greenloan/validator-cli/internal/extract"
	"github.com/greenloan/validator-cli/internal/ingest"
	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/store"
)

// DocumentProcessor ingests a PDF into per-page text.
type DocumentProcessor interface {
	Process(ctx context.Context, pdfPath string) (*ingest.Document, error)
}

// Analyzer wires the analysis stages together.
type Analyzer struct {
	processor DocumentProcessor
	oracle    extract.Oracle
	engine    *engine.Engine
	store     store.Store // optional
}

// NewAnalyzer creates an Analyzer. The store may be nil, in which case
// reports are not persisted.
func NewAnalyzer(processor DocumentProcessor, oracle extract.Oracle, eng *engine.Engine, st store.Store) *Analyzer {
	return &Analyzer{processor: processor, oracle: oracle, engine: eng, store: st}
}

// Run analyzes a single PDF end to end and returns the full report.
func (a *Analyzer) Run(ctx context.Context, pdfPath string) (*model.AnalysisReport, error) {
	start := time.Now()

	doc, err := a.processor.Process(ctx, pdfPath)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: ingest %s", pdfPath)
	}
	zap.L().Info("pipeline: document ingested",
		zap.String("doc_id", doc.Meta.DocID),
		zap.Int("pages", doc.Meta.Pages),
	)

	// PII never reaches the extraction oracle.
	pages := ingest.AnonymizePages(doc.PageTexts)

	facts, err := a.oracle.Extract(ctx, pages)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: extract facts for %s", doc.Meta.DocID)
	}

	results, flags, card := a.engine.Evaluate(ctx, facts)

	report := &model.AnalysisReport{
		Document:      doc.Meta,
		PageInfo:      doc.Pages,
		Facts:         facts,
		Verifications: results,
		RedFlags:      flags,
		ScoreCard:     card,
	}

	if a.store != nil {
		if _, err := a.store.SaveReport(ctx, report); err != nil {
			return nil, eris.Wrapf(err, "pipeline: save report %s", doc.Meta.DocID)
		}
	}

	zap.L().Info("pipeline: analysis complete",
		zap.String("doc_id", doc.Meta.DocID),
		zap.String("traffic_light", string(card.TrafficLight)),
		zap.Int("facts", len(facts)),
		zap.Int("red_flags", len(flags)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}
