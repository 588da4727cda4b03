package fetcher

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/cachekey"
)

type SearchFetcher struct {
	deps  Deps
	api   MovieAPI
	group singleflight.Group
}

func NewSearchFetcher(deps Deps, api MovieAPI) *SearchFetcher {
	return &SearchFetcher{deps: deps.withDefaults(), api: api}
}

// Fetch returns the search result for the normalized form of query.
func (f *SearchFetcher) Fetch(ctx context.Context, query string) (*domain.SearchResult, error) {
	key := cachekey.NormalizeSearch(query)

	result, found, err := f.deps.Store.GetSearch(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		f.deps.hit(cachekey.KindSearch, key)
		return result, nil
	}

	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		// a previous flight may have stored it since the first lookup
		if result, found, err := f.deps.Store.GetSearch(ctx, key); err != nil || found {
			return result, err
		}
		f.deps.miss(cachekey.KindSearch, key)

		result, err := f.api.SearchMovies(ctx, key)
		if err != nil {
			f.deps.upstreamFailed(cachekey.KindSearch, key, err)
			return nil, err
		}

		if err := f.deps.Store.PutSearch(ctx, key, result); err != nil {
			return nil, err
		}

		if err := f.deps.Publisher.PublishSearchCached(ctx, key, result); err != nil {
			f.deps.publishFailed(cachekey.KindSearch, key, err)
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.SearchResult), nil
}
