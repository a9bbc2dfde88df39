package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/greenloan/validator-cli/internal/engine"
	"github.com/greenloan/validator-cli/internal/extract"
	"github.com/greenloan/validator-cli/internal/ingest"
	"github.com/greenloan/validator-cli/internal/pipeline"
	"github.com/greenloan/validator-cli/internal/store"
	"github.com/greenloan/validator-cli/pkg/geocode"
	"github.com/greenloan/validator-cli/pkg/pvgis"
)

// appEnv bundles the wired pipeline and its closeable resources.
type appEnv struct {
	analyzer *pipeline.Analyzer
	store    store.Store
}

func (e *appEnv) Close() {
	if e.store != nil {
		e.store.Close()
	}
}

// initStore opens and migrates the report database.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initAnalyzer wires the full pipeline. With persist false no store is
// opened and reports are only printed.
func initAnalyzer(ctx context.Context, persist bool) (*appEnv, error) {
	if err := cfg.Validate("analyze"); err != nil {
		return nil, err
	}

	var st store.Store
	if persist {
		s, err := initStore(ctx)
		if err != nil {
			return nil, err
		}
		st = s
	}

	processor := ingest.NewProcessor(cfg.Ingest.PdfToTextPath, cfg.UploadDir)
	oracle := extract.New(cfg.Anthropic.Key, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	geocoder := geocode.NewClient(
		geocode.WithBaseURL(cfg.Nominatim.BaseURL),
		geocode.WithUserAgent(cfg.Nominatim.UserAgent),
		geocode.WithRateLimit(cfg.Nominatim.RateLimitRPS),
		geocode.WithCacheTTL(time.Duration(cfg.Nominatim.CacheTTLMins)*time.Minute),
	)

	estimator := pvgis.NewCascade(
		pvgis.NewClient(
			pvgis.WithBaseURL(cfg.PVGIS.BaseURL),
			pvgis.WithSystemLoss(cfg.PVGIS.LossPct),
		),
		pvgis.NewStaticEstimator(cfg.PVGIS.FallbackCountry),
	)

	eng := engine.Default(
		pipeline.NewLocationResolver(geocoder),
		pipeline.NewIrradianceEstimator(estimator),
	)

	return &appEnv{
		analyzer: pipeline.NewAnalyzer(processor, oracle, eng, st),
		store:    st,
	}, nil
}
