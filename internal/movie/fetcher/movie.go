package fetcher

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/cachekey"
)

type MovieFetcher struct {
	deps  Deps
	api   MovieAPI
	group singleflight.Group
}

func NewMovieFetcher(deps Deps, api MovieAPI) *MovieFetcher {
	return &MovieFetcher{deps: deps.withDefaults(), api: api}
}

// Fetch returns a movie detail and its countries. The detail and the
// parsed country list are written to the store together.
func (f *MovieFetcher) Fetch(ctx context.Context, imdbID string) (*domain.MovieRecord, error) {
	record, found, err := f.deps.Store.GetMovie(ctx, imdbID)
	if err != nil {
		return nil, err
	}
	if found {
		f.deps.hit(cachekey.KindMovie, imdbID)
		return record, nil
	}

	v, err, _ := f.group.Do(imdbID, func() (interface{}, error) {
		if record, found, err := f.deps.Store.GetMovie(ctx, imdbID); err != nil || found {
			return record, err
		}
		f.deps.miss(cachekey.KindMovie, imdbID)

		detail, err := f.api.FetchMovieDetail(ctx, imdbID)
		if err != nil {
			f.deps.upstreamFailed(cachekey.KindMovie, imdbID, err)
			return nil, err
		}

		// the store is keyed by the requested id
		detail.ImdbID = imdbID
		countries := domain.SplitCountries(detail.Country)

		if err := f.deps.Store.PutMovie(ctx, detail, countries); err != nil {
			return nil, err
		}

		record := &domain.MovieRecord{Detail: *detail, Countries: countries}
		if err := f.deps.Publisher.PublishMovieCached(ctx, record); err != nil {
			f.deps.publishFailed(cachekey.KindMovie, imdbID, err)
		}
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.MovieRecord), nil
}
