package pipeline

import (
	"context"

	"github.com/greenloan/validator-cli/internal/engine"
	"github.com/greenloan/validator-cli/pkg/geocode"
	"github.com/greenloan/validator-cli/pkg/pvgis"
)

// geocodeResolver adapts a geocode.Client to the engine's resolver interface.
type geocodeResolver struct {
	client geocode.Client
}

// NewLocationResolver wraps a geocoding client for use by verification rules.
func NewLocationResolver(client geocode.Client) engine.LocationResolver {
	return &geocodeResolver{client: client}
}

func (g *geocodeResolver) Resolve(ctx context.Context, text string) (*engine.Location, error) {
	res, err := g.client.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return &engine.Location{
		Lat:         res.Lat,
		Lon:         res.Lon,
		Confidence:  res.Confidence,
		CountryCode: res.CountryCode,
	}, nil
}

// pvgisEstimator adapts a pvgis.Estimator to the engine's estimator interface.
type pvgisEstimator struct {
	estimator pvgis.Estimator
}

// NewIrradianceEstimator wraps a solar yield estimator for use by
// verification rules.
func NewIrradianceEstimator(estimator pvgis.Estimator) engine.IrradianceEstimator {
	return &pvgisEstimator{estimator: estimator}
}

func (p *pvgisEstimator) Estimate(ctx context.Context, lat, lon, peakPowerKwp float64) (*engine.Irradiance, error) {
	est, err := p.estimator.Estimate(ctx, lat, lon, peakPowerKwp)
	if err != nil {
		return nil, err
	}
	return &engine.Irradiance{
		AnnualEnergyKwh: est.AnnualEnergyKwh,
		SpecificYield:   est.SpecificYield,
		MonthlyKwh:      est.MonthlyKwh,
	}, nil
}
