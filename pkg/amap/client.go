// Package amap provides a client for the AMap (高德地图) geocoding web API.
package amap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://restapi.amap.com/v3/geocode/geo"

// Client resolves free-text place names to GCJ02 coordinates.
type Client interface {
	// Resolve geocodes a single query. An unmatched query is not an error:
	// the returned Result has Matched == false.
	Resolve(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for one query.
type Result struct {
	Longitude float64
	Latitude  float64
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithBaseURL overrides the geocode endpoint URL.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		g.baseURL = u
	}
}

// WithCity sets the city hint and the prefix prepended to every query to
// improve match accuracy (e.g. city "成都", prefix "成都市").
func WithCity(city, prefix string) Option {
	return func(g *geocoder) {
		g.city = city
		g.cityPrefix = prefix
	}
}

// WithRateLimit sets the requests-per-second limit for geocode calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type geocoder struct {
	key        string
	baseURL    string
	city       string
	cityPrefix string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a geocoding Client with the given API key.
func NewClient(key string, opts ...Option) Client {
	g := &geocoder{
		key:        key,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(3, 3), // free-tier quota: 3 req/s
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// geocodeResponse is the JSON response from the AMap geocode API.
type geocodeResponse struct {
	Status   string         `json:"status"` // "1" on success
	Info     string         `json:"info"`
	Geocodes []geocodeEntry `json:"geocodes"`
}

type geocodeEntry struct {
	Location string `json:"location"` // "lng,lat"
	Level    string `json:"level"`
}

// Resolve implements Client.
func (g *geocoder) Resolve(ctx context.Context, query string) (*Result, error) {
	if g.key == "" {
		return nil, eris.New("amap: api key not configured")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "amap: rate limit")
	}

	params := url.Values{
		"address": {g.cityPrefix + query},
		"key":     {g.key},
		"output":  {"JSON"},
	}
	if g.city != "" {
		params.Set("city", g.city)
	}

	reqURL := g.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "amap: build request")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "amap: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("amap: returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "amap: read body")
	}

	var geoResp geocodeResponse
	if err := json.Unmarshal(body, &geoResp); err != nil {
		return nil, eris.Wrap(err, "amap: parse response")
	}

	if geoResp.Status != "1" || len(geoResp.Geocodes) == 0 {
		zap.L().Debug("amap: no match",
			zap.String("query", query),
			zap.String("info", geoResp.Info),
		)
		return &Result{Matched: false}, nil
	}

	lng, lat, err := parseLocation(geoResp.Geocodes[0].Location)
	if err != nil {
		return nil, err
	}

	return &Result{Longitude: lng, Latitude: lat, Matched: true}, nil
}

// parseLocation splits AMap's "lng,lat" location string into floats.
func parseLocation(loc string) (lng, lat float64, err error) {
	parts := strings.SplitN(loc, ",", 2)
	if len(parts) != 2 {
		return 0, 0, eris.Errorf("amap: invalid location %q", loc)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "amap: parse longitude")
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "amap: parse latitude")
	}
	return lng, lat, nil
}
