package pvgis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pvcalcBody = `{"outputs":{"totals":{"fixed":{"E_y":105000}},"monthly":{"fixed":[{"E_m":4000},{"E_m":6000}]}}}`

func TestEstimate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "crystSi", q.Get("pvtechchoice"))
		assert.Equal(t, "1", q.Get("optimalangles"))
		assert.Equal(t, "100", q.Get("peakpower"))
		fmt.Fprint(w, pvcalcBody)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL))
	est, err := c.Estimate(context.Background(), 52.23, 21.01, 100)
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.InDelta(t, 105000, est.AnnualEnergyKwh, 1e-9)
	assert.InDelta(t, 1050, est.SpecificYield, 1e-9)
	assert.Len(t, est.MonthlyKwh, 2)
	assert.Equal(t, "pvgis", est.Source)
}

func TestEstimate_CacheHit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		fmt.Fprint(w, pvcalcBody)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL))
	_, err := c.Estimate(context.Background(), 52.23, 21.01, 100)
	require.NoError(t, err)
	_, err = c.Estimate(context.Background(), 52.23, 21.01, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEstimate_APIDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(WithBaseURL(ts.URL))
	_, err := c.Estimate(context.Background(), 52.23, 21.01, 100)
	assert.Error(t, err)
}

func TestEstimate_InvalidPower(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:0"))
	_, err := c.Estimate(context.Background(), 52.23, 21.01, 0)
	assert.Error(t, err)
}

func TestStaticEstimator(t *testing.T) {
	s := NewStaticEstimator("PL")
	est, err := s.Estimate(context.Background(), 52.23, 21.01, 100)
	require.NoError(t, err)
	assert.InDelta(t, 1025, est.SpecificYield, 1e-9, "midpoint of the 950-1100 PL band")
	assert.InDelta(t, 102500, est.AnnualEnergyKwh, 1e-9)
	assert.Equal(t, "static:PL", est.Source)
}

func TestCascade_FallsBackToStatic(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cascade := NewCascade(NewClient(WithBaseURL(ts.URL)), NewStaticEstimator("PL"))
	est, err := cascade.Estimate(context.Background(), 52.23, 21.01, 10)
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.Equal(t, "static:PL", est.Source)
}

func TestCascade_AllFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cascade := NewCascade(NewClient(WithBaseURL(ts.URL)))
	_, err := cascade.Estimate(context.Background(), 52.23, 21.01, 10)
	assert.Error(t, err)
}

func TestTypicalYieldRange(t *testing.T) {
	assert.Equal(t, YieldRange{950, 1100}, TypicalYieldRange("PL"))
	assert.Equal(t, YieldRange{900, 1400}, TypicalYieldRange("XX"), "unknown countries use the default band")
}
