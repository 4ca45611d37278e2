// Package geocode resolves a venue name and location to coordinates.
package geocode

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/metrics"
	"github.com/sichef/sichef/internal/model"
	"github.com/sichef/sichef/internal/resilience"
)

// ErrNoResults is the Error of a lookup that matched nothing.
const ErrNoResults = "No results found"

// Geocoder resolves venues through a single provider, optionally caching
// matches.
type Geocoder struct {
	provider Provider
	cache    Cache
	metrics  *metrics.Metrics
	retry    resilience.RetryConfig
}

// Option configures a Geocoder.
type Option func(*Geocoder)

// WithCache enables the match cache.
func WithCache(c Cache) Option {
	return func(g *Geocoder) { g.cache = c }
}

// WithMetrics records lookup outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Geocoder) { g.metrics = m }
}

// WithRetry replaces the retry policy for transient provider failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *Geocoder) { g.retry = cfg }
}

// New creates a Geocoder. A nil provider makes every lookup fail with a
// configuration error.
func New(provider Provider, opts ...Option) *Geocoder {
	g := &Geocoder{provider: provider, retry: resilience.DefaultRetryConfig()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Query joins name and location the way they are sent to the provider.
func Query(name, location string) string {
	name, location = strings.TrimSpace(name), strings.TrimSpace(location)
	switch {
	case location == "":
		return name
	case name == "":
		return location
	default:
		return name + ", " + location
	}
}

// Lookup never returns a Go error. A result without coordinates carries the
// reason in Error.
func (g *Geocoder) Lookup(ctx context.Context, name, location string) model.GeocodeResult {
	if g.provider == nil {
		g.metrics.Geocode(metrics.GeocodeError)
		return model.GeocodeResult{Error: "geocoding " + model.ErrNotConfigured.Error()}
	}

	query := Query(name, location)
	log := zap.L().With(zap.String("restaurant", name), zap.String("query", query), zap.String("provider", g.provider.Name()))

	if g.cache != nil {
		cached, err := g.cache.Get(ctx, query)
		if err != nil {
			log.Debug("geocode cache read failed", zap.Error(err))
		} else if cached != nil && cached.Found() {
			log.Debug("geocode cache hit")
			g.metrics.Geocode(metrics.GeocodeMatched)
			return *cached
		}
	}

	retry := g.retry
	retry.OnRetry = resilience.RetryLogger(g.provider.Name(), "geocode")
	var res *model.GeocodeResult
	err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		var err error
		res, err = g.provider.Search(ctx, query)
		return err
	})
	if err != nil {
		log.Warn("geocode failed", zap.Error(err))
		g.metrics.Geocode(metrics.GeocodeError)
		return model.GeocodeResult{Error: err.Error()}
	}
	if res == nil || !res.Found() {
		log.Debug("geocode: no results")
		g.metrics.Geocode(metrics.GeocodeNoResults)
		return model.GeocodeResult{Error: ErrNoResults}
	}

	g.metrics.Geocode(metrics.GeocodeMatched)
	if g.cache != nil {
		if err := g.cache.Set(ctx, query, *res); err != nil {
			log.Debug("geocode cache write failed", zap.Error(err))
		}
	}
	return *res
}
