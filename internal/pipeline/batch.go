package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/greenloan/validator-cli/internal/model"
)

// BatchResult pairs one input path with its outcome.
type BatchResult struct {
	Path   string
	Report *model.AnalysisReport
	Err    error
}

// RunBatch analyzes the given PDFs with bounded concurrency. Per-document
// failures are recorded in the result slice; only context cancellation aborts
// the batch.
func (a *Analyzer) RunBatch(ctx context.Context, paths []string, maxConcurrent int) []BatchResult {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]BatchResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Path: path, Err: err}
				return nil
			}
			report, err := a.Run(ctx, path)
			if err != nil {
				zap.L().Warn("pipeline: document failed",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			results[i] = BatchResult{Path: path, Report: report, Err: err}
			return nil
		})
	}

	g.Wait()
	return results
}
