package fetcher

import (
	"context"
	"errors"

	"golang.org/x/sync/singleflight"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/cachekey"
)

type FlagFetcher struct {
	deps  Deps
	api   FlagAPI
	group singleflight.Group
}

func NewFlagFetcher(deps Deps, api FlagAPI) *FlagFetcher {
	return &FlagFetcher{deps: deps.withDefaults(), api: api}
}

// Fetch returns the flag of a country. An unknown country is cached with a
// nil FlagURL and is not looked up again.
func (f *FlagFetcher) Fetch(ctx context.Context, countryName string) (*domain.CountryFlag, error) {
	flag, found, err := f.deps.Store.GetFlag(ctx, countryName)
	if err != nil {
		return nil, err
	}
	if found {
		f.deps.hit(cachekey.KindFlag, countryName)
		return flag, nil
	}

	v, err, _ := f.group.Do(countryName, func() (interface{}, error) {
		if flag, found, err := f.deps.Store.GetFlag(ctx, countryName); err != nil || found {
			return flag, err
		}
		f.deps.miss(cachekey.KindFlag, countryName)

		url, err := f.api.FetchCountryFlag(ctx, countryName)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			url = nil
		case err != nil:
			f.deps.upstreamFailed(cachekey.KindFlag, countryName, err)
			return nil, err
		}

		flag := &domain.CountryFlag{CountryName: countryName, FlagURL: url}
		if err := f.deps.Store.PutFlag(ctx, flag); err != nil {
			return nil, err
		}

		if err := f.deps.Publisher.PublishFlagCached(ctx, flag); err != nil {
			f.deps.publishFailed(cachekey.KindFlag, countryName, err)
		}
		return flag, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.CountryFlag), nil
}
