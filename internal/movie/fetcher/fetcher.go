// Package fetcher implements the check-cache, fetch-on-miss, populate
// sequence for each resource kind. A key triggers at most one successful
// upstream call; concurrent misses on the same key share one call.
package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/events"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/metrics"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/cachekey"
)

// MovieAPI is the movie search and detail upstream.
type MovieAPI interface {
	SearchMovies(ctx context.Context, query string) (*domain.SearchResult, error)
	FetchMovieDetail(ctx context.Context, imdbID string) (*domain.MovieDetail, error)
}

// FlagAPI is the country flag upstream.
type FlagAPI interface {
	FetchCountryFlag(ctx context.Context, countryName string) (*string, error)
}

// Deps are shared by all fetchers.
type Deps struct {
	Store     domain.CacheStore
	Publisher domain.EventPublisher
	Metrics   metrics.Metrics
	Logger    *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = events.NoopPublisher{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

func (d Deps) hit(kind cachekey.Kind, key string) {
	d.Metrics.IncrementCounterWithLabels(metrics.CacheHit, map[string]string{"kind": string(kind)})
	d.Logger.Debug("Found in cache", zap.String("kind", string(kind)), zap.String("key", key))
}

func (d Deps) miss(kind cachekey.Kind, key string) {
	d.Metrics.IncrementCounterWithLabels(metrics.CacheMiss, map[string]string{"kind": string(kind)})
	d.Metrics.IncrementCounterWithLabels(metrics.UpstreamCall, map[string]string{"kind": string(kind)})
	d.Logger.Debug("Calling upstream", zap.String("kind", string(kind)), zap.String("key", key))
}

func (d Deps) upstreamFailed(kind cachekey.Kind, key string, err error) {
	d.Metrics.IncrementCounterWithLabels(metrics.UpstreamFailure, map[string]string{"kind": string(kind)})
	d.Logger.Warn("Upstream fetch failed",
		zap.Error(err), zap.String("kind", string(kind)), zap.String("key", key))
}

func (d Deps) publishFailed(kind cachekey.Kind, key string, err error) {
	d.Logger.Error("Failed to publish cache event",
		zap.Error(err), zap.String("kind", string(kind)), zap.String("key", key))
}
