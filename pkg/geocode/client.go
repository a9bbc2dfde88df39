// Package geocode resolves free-text project locations to coordinates via
// the OSM Nominatim API, with caching and rate limiting per usage policy.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "greenloan-validator/1.0"
	defaultCacheTTL  = 24 * time.Hour
)

// Result is a resolved location.
type Result struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
	CountryCode string  `json:"country_code"` // ISO 3166-1 alpha-2, upper case
	Confidence  float64 `json:"confidence"`
}

// Client resolves location text to coordinates. A nil Result with nil error
// means no match.
type Client interface {
	Resolve(ctx context.Context, query string) (*Result, error)
}

// Option configures the resolver.
type Option func(*resolver)

// WithBaseURL overrides the Nominatim endpoint (tests point it at httptest).
func WithBaseURL(u string) Option {
	return func(r *resolver) { r.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *resolver) { r.httpClient = hc }
}

// WithRateLimit sets the requests-per-second limit. Nominatim policy is 1 rps.
func WithRateLimit(rps float64) Option {
	return func(r *resolver) { r.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithUserAgent sets the User-Agent header Nominatim requires.
func WithUserAgent(ua string) Option {
	return func(r *resolver) { r.userAgent = ua }
}

// WithCacheTTL sets how long resolved (and unresolved) queries are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *resolver) { r.cache = gocache.New(ttl, 2*ttl) }
}

type resolver struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// NewClient creates a Nominatim-backed Client.
func NewClient(opts ...Option) Client {
	r := &resolver{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		cache:      gocache.New(defaultCacheTTL, 2*defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// nominatimPlace is one entry of the Nominatim search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Resolve resolves a location, trying the full query first and falling back
// to its trailing comma-separated parts (city and country, then the last
// part alone). Negative outcomes are cached too.
func (r *resolver) Resolve(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if len(query) < 5 {
		return nil, nil
	}

	key := cacheKey(query)
	if cached, ok := r.cache.Get(key); ok {
		res, _ := cached.(*Result)
		return res, nil // res is nil for cached negative results
	}

	place, err := r.search(ctx, query)
	if err != nil {
		return nil, err
	}

	if place == nil {
		for _, fallback := range fallbackQueries(query) {
			place, err = r.search(ctx, fallback)
			if err != nil {
				return nil, err
			}
			if place != nil {
				break
			}
		}
	}

	if place == nil {
		r.cache.SetDefault(key, (*Result)(nil))
		zap.L().Debug("geocode: no match", zap.String("query", query))
		return nil, nil
	}

	result, err := toResult(place, query)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, result)
	return result, nil
}

// search performs a single rate-limited Nominatim lookup.
func (r *resolver) search(ctx context.Context, query string) (*nominatimPlace, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}
	reqURL := r.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return nil, nil
	}
	return &places[0], nil
}

// toResult converts a Nominatim place into a Result. Building-level matches
// get higher confidence than region or city centroids.
func toResult(place *nominatimPlace, query string) (*Result, error) {
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: parse lat %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: parse lon %q", place.Lon)
	}

	confidence := 0.7
	switch place.Type {
	case "building", "house", "residential":
		confidence = 0.9
	}

	name := place.DisplayName
	if name == "" {
		name = query
	}
	return &Result{
		Lat:         lat,
		Lon:         lon,
		DisplayName: name,
		CountryCode: strings.ToUpper(place.Address.CountryCode),
		Confidence:  confidence,
	}, nil
}

// fallbackQueries derives coarser lookups from a full address: the trailing
// city+country pair, then the last part alone. Queries equal to the original
// are dropped.
func fallbackQueries(query string) []string {
	raw := strings.Split(query, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var out []string
	if len(parts) >= 2 {
		out = append(out, strings.Join(parts[len(parts)-2:], ", "))
	}
	if len(parts) >= 1 {
		out = append(out, parts[len(parts)-1])
	}
	filtered := out[:0]
	for _, q := range out {
		if q != query {
			filtered = append(filtered, q)
		}
	}
	return filtered
}
