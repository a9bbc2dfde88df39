package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenloan/validator-cli/internal/engine"
	"github.com/greenloan/validator-cli/internal/ingest"
	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/store"
	"github.com/greenloan/validator-cli/pkg/geocode"
	"github.com/greenloan/validator-cli/pkg/pvgis"
)

type stubProcessor struct {
	mu   sync.Mutex
	docs map[string]*ingest.Document
	errs map[string]error
}

func (s *stubProcessor) Process(_ context.Context, pdfPath string) (*ingest.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs[pdfPath]; err != nil {
		return nil, err
	}
	return s.docs[pdfPath], nil
}

type stubOracle struct {
	facts []model.Fact
	err   error
	got   []string
}

func (s *stubOracle) Extract(_ context.Context, pages []string) ([]model.Fact, error) {
	s.got = pages
	return s.facts, s.err
}

type memStore struct {
	store.Store
	mu    sync.Mutex
	saved []*model.AnalysisReport
}

func (m *memStore) SaveReport(_ context.Context, r *model.AnalysisReport) (*store.ReportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return &store.ReportSummary{DocID: r.Document.DocID}, nil
}

func testDoc(docID string) *ingest.Document {
	return &ingest.Document{
		Meta: model.DocumentMeta{DocID: docID, Filename: "offer.pdf", Pages: 2},
		Pages: []model.PageInfo{
			{PageNo: 1, HasText: true, CharCount: 500},
			{PageNo: 2, HasText: true, CharCount: 300},
		},
		PageTexts: []string{"Moc instalacji: 100 kWp", "Kontakt: jan.kowalski@example.com"},
	}
}

func testAnalyzer(p DocumentProcessor, o *stubOracle, st store.Store) *Analyzer {
	return NewAnalyzer(p, o, engine.Default(nil, nil), st)
}

func TestRun(t *testing.T) {
	proc := &stubProcessor{docs: map[string]*ingest.Document{"offer.pdf": testDoc("DOC-1")}}
	oracle := &stubOracle{facts: []model.Fact{
		{Field: model.FieldDeclaredPower, Value: model.Number(100), Confidence: 0.9},
	}}
	st := &memStore{}

	report, err := testAnalyzer(proc, oracle, st).Run(context.Background(), "offer.pdf")
	require.NoError(t, err)

	assert.Equal(t, "DOC-1", report.Document.DocID)
	assert.Len(t, report.Facts, 1)
	assert.Len(t, report.PageInfo, 2)
	assert.NotEmpty(t, report.ScoreCard.TrafficLight)
	// declared power present, other required fields flagged
	assert.NotEmpty(t, report.RedFlags)

	require.Len(t, st.saved, 1)
	assert.Equal(t, "DOC-1", st.saved[0].Document.DocID)
}

func TestRun_AnonymizesBeforeExtraction(t *testing.T) {
	proc := &stubProcessor{docs: map[string]*ingest.Document{"offer.pdf": testDoc("DOC-1")}}
	oracle := &stubOracle{}

	_, err := testAnalyzer(proc, oracle, nil).Run(context.Background(), "offer.pdf")
	require.NoError(t, err)

	require.Len(t, oracle.got, 2)
	assert.NotContains(t, oracle.got[1], "jan.kowalski@example.com")
	assert.Contains(t, oracle.got[0], "100 kWp")
}

func TestRun_NilStoreSkipsPersistence(t *testing.T) {
	proc := &stubProcessor{docs: map[string]*ingest.Document{"offer.pdf": testDoc("DOC-1")}}

	report, err := testAnalyzer(proc, &stubOracle{}, nil).Run(context.Background(), "offer.pdf")
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestRun_IngestError(t *testing.T) {
	proc := &stubProcessor{errs: map[string]error{"bad.pdf": errors.New("not a pdf")}}

	_, err := testAnalyzer(proc, &stubOracle{}, nil).Run(context.Background(), "bad.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest")
}

func TestRun_OracleError(t *testing.T) {
	proc := &stubProcessor{docs: map[string]*ingest.Document{"offer.pdf": testDoc("DOC-1")}}
	oracle := &stubOracle{err: errors.New("api down")}

	_, err := testAnalyzer(proc, oracle, nil).Run(context.Background(), "offer.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract facts")
}

func TestRunBatch(t *testing.T) {
	proc := &stubProcessor{
		docs: map[string]*ingest.Document{
			"a.pdf": testDoc("DOC-A"),
			"c.pdf": testDoc("DOC-C"),
		},
		errs: map[string]error{"b.pdf": errors.New("not a pdf")},
	}

	results := testAnalyzer(proc, &stubOracle{}, nil).
		RunBatch(context.Background(), []string{"a.pdf", "b.pdf", "c.pdf"}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, "a.pdf", results[0].Path)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "DOC-A", results[0].Report.Document.DocID)

	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Report)

	require.NoError(t, results[2].Err)
	assert.Equal(t, "DOC-C", results[2].Report.Document.DocID)
}

func TestRunBatch_ZeroConcurrencyStillRuns(t *testing.T) {
	proc := &stubProcessor{docs: map[string]*ingest.Document{"a.pdf": testDoc("DOC-A")}}

	results := testAnalyzer(proc, &stubOracle{}, nil).
		RunBatch(context.Background(), []string{"a.pdf"}, 0)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

type fixedResolver struct{ loc *geocode.Result }

func (f fixedResolver) Resolve(context.Context, string) (*geocode.Result, error) {
	return f.loc, nil
}

func TestLocationResolverAdapter(t *testing.T) {
	adapter := NewLocationResolver(fixedResolver{loc: &geocode.Result{
		Lat: 52.23, Lon: 21.01, CountryCode: "PL", Confidence: 0.9,
	}})

	loc, err := adapter.Resolve(context.Background(), "Warszawa")
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, 52.23, loc.Lat)
	assert.Equal(t, "PL", loc.CountryCode)

	// no match passes through as nil, nil
	none, err := NewLocationResolver(fixedResolver{}).Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestIrradianceEstimatorAdapter(t *testing.T) {
	adapter := NewIrradianceEstimator(pvgis.NewStaticEstimator("PL"))

	est, err := adapter.Estimate(context.Background(), 52.23, 21.01, 100)
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.Greater(t, est.SpecificYield, 0.0)
	assert.Equal(t, est.SpecificYield*100, est.AnnualEnergyKwh)
}
