package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/cache"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/metrics"
)

// Mock for MovieAPI and FlagAPI
type MockAPI struct {
	SearchFunc func(ctx context.Context, query string) (*domain.SearchResult, error)
	DetailFunc func(ctx context.Context, imdbID string) (*domain.MovieDetail, error)
	FlagFunc   func(ctx context.Context, countryName string) (*string, error)

	searchCalls int32
	detailCalls int32
	flagCalls   int32
}

func (m *MockAPI) SearchMovies(ctx context.Context, query string) (*domain.SearchResult, error) {
	atomic.AddInt32(&m.searchCalls, 1)
	return m.SearchFunc(ctx, query)
}

func (m *MockAPI) FetchMovieDetail(ctx context.Context, imdbID string) (*domain.MovieDetail, error) {
	atomic.AddInt32(&m.detailCalls, 1)
	return m.DetailFunc(ctx, imdbID)
}

func (m *MockAPI) FetchCountryFlag(ctx context.Context, countryName string) (*string, error) {
	atomic.AddInt32(&m.flagCalls, 1)
	return m.FlagFunc(ctx, countryName)
}

// brokenStore fails every operation the way an unreachable database would
type brokenStore struct {
	cache.MemoryStore
}

var errBroken = fmt.Errorf("%w: connection refused", domain.ErrCacheUnavailable)

func (*brokenStore) GetSearch(context.Context, string) (*domain.SearchResult, bool, error) {
	return nil, false, errBroken
}

func (*brokenStore) GetMovie(context.Context, string) (*domain.MovieRecord, bool, error) {
	return nil, false, errBroken
}

func (*brokenStore) GetFlag(context.Context, string) (*domain.CountryFlag, bool, error) {
	return nil, false, errBroken
}

func strPtr(s string) *string { return &s }

func newDeps(store domain.CacheStore) (Deps, *metrics.InMemoryMetrics) {
	m := metrics.NewInMemoryMetrics()
	return Deps{Store: store, Metrics: m}, m
}

func TestSearchFetcher_SecondCallServedFromCache(t *testing.T) {
	api := &MockAPI{
		SearchFunc: func(ctx context.Context, query string) (*domain.SearchResult, error) {
			assert.Equal(t, "BATMAN", query)
			return &domain.SearchResult{Search: []domain.MovieStub{{ImdbID: "tt1", Title: "Batman"}}, TotalResults: 1}, nil
		},
	}
	deps, m := newDeps(cache.NewMemoryStore())
	f := NewSearchFetcher(deps, api)

	first, err := f.Fetch(context.Background(), "batman")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), "Batman")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.searchCalls))
	assert.Equal(t, int64(1), m.GetCounters()["cache_hit{kind=search}"])
}

func TestSearchFetcher_FailureNotCached(t *testing.T) {
	api := &MockAPI{
		SearchFunc: func(ctx context.Context, query string) (*domain.SearchResult, error) {
			return nil, domain.ErrUpstreamUnavailable
		},
	}
	store := cache.NewMemoryStore()
	deps, _ := newDeps(store)
	f := NewSearchFetcher(deps, api)

	_, err := f.Fetch(context.Background(), "heat")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	_, err = f.Fetch(context.Background(), "heat")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	assert.Equal(t, int32(2), atomic.LoadInt32(&api.searchCalls))
	_, found, _ := store.GetSearch(context.Background(), "HEAT")
	assert.False(t, found)
}

func TestMovieFetcher_StoresCountries(t *testing.T) {
	api := &MockAPI{
		DetailFunc: func(ctx context.Context, imdbID string) (*domain.MovieDetail, error) {
			return &domain.MovieDetail{ImdbID: imdbID, Title: "Trip", Year: 2001, Country: "USA, Canada, Mexico"}, nil
		},
	}
	store := cache.NewMemoryStore()
	deps, _ := newDeps(store)
	f := NewMovieFetcher(deps, api)

	record, err := f.Fetch(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Equal(t, []string{"USA", "Canada", "Mexico"}, record.Countries)

	cached, found, err := store.GetMovie(context.Background(), "tt1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, record.Countries, cached.Countries)

	_, err = f.Fetch(context.Background(), "tt1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.detailCalls))
}

func TestMovieFetcher_NotFoundNotCached(t *testing.T) {
	api := &MockAPI{
		DetailFunc: func(ctx context.Context, imdbID string) (*domain.MovieDetail, error) {
			return nil, domain.ErrNotFound
		},
	}
	store := cache.NewMemoryStore()
	deps, _ := newDeps(store)
	f := NewMovieFetcher(deps, api)

	_, err := f.Fetch(context.Background(), "tt-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, found, _ := store.GetMovie(context.Background(), "tt-missing")
	assert.False(t, found)
}

func TestFlagFetcher_NullFlagRoundTrip(t *testing.T) {
	api := &MockAPI{
		FlagFunc: func(ctx context.Context, countryName string) (*string, error) {
			return nil, fmt.Errorf("%w: country %q", domain.ErrNotFound, countryName)
		},
	}
	deps, _ := newDeps(cache.NewMemoryStore())
	f := NewFlagFetcher(deps, api)

	first, err := f.Fetch(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, first.FlagURL)

	second, err := f.Fetch(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, second.FlagURL)

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.flagCalls))
}

func TestFlagFetcher_UpstreamFailureNotCached(t *testing.T) {
	calls := 0
	api := &MockAPI{
		FlagFunc: func(ctx context.Context, countryName string) (*string, error) {
			calls++
			if calls == 1 {
				return nil, domain.ErrUpstreamUnavailable
			}
			return strPtr("https://flagcdn.com/fr.svg"), nil
		},
	}
	deps, _ := newDeps(cache.NewMemoryStore())
	f := NewFlagFetcher(deps, api)

	_, err := f.Fetch(context.Background(), "France")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	flag, err := f.Fetch(context.Background(), "France")
	require.NoError(t, err)
	require.NotNil(t, flag.FlagURL)
	assert.Equal(t, "https://flagcdn.com/fr.svg", *flag.FlagURL)
}

func TestFlagFetcher_ConcurrentMissesShareOneCall(t *testing.T) {
	release := make(chan struct{})
	api := &MockAPI{
		FlagFunc: func(ctx context.Context, countryName string) (*string, error) {
			<-release
			return strPtr("https://flagcdn.com/br.svg"), nil
		},
	}
	deps, _ := newDeps(cache.NewMemoryStore())
	f := NewFlagFetcher(deps, api)

	var wg sync.WaitGroup
	numRequests := 20
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flag, err := f.Fetch(context.Background(), "Brazil")
			assert.NoError(t, err)
			assert.Equal(t, "Brazil", flag.CountryName)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.flagCalls))

	_, err := f.Fetch(context.Background(), "Brazil")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.flagCalls), "cached flag must not trigger another call")
}

// stallingStore holds the first flag lookup after it has observed a miss
type stallingStore struct {
	*cache.MemoryStore
	once    sync.Once
	stalled chan struct{}
	resume  chan struct{}
}

func newStallingStore() *stallingStore {
	return &stallingStore{
		MemoryStore: cache.NewMemoryStore(),
		stalled:     make(chan struct{}),
		resume:      make(chan struct{}),
	}
}

func (s *stallingStore) GetFlag(ctx context.Context, countryName string) (*domain.CountryFlag, bool, error) {
	flag, found, err := s.MemoryStore.GetFlag(ctx, countryName)

	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.stalled)
		<-s.resume
	}
	return flag, found, err
}

func TestFlagFetcher_LateMissServedFromCache(t *testing.T) {
	api := &MockAPI{
		FlagFunc: func(ctx context.Context, countryName string) (*string, error) {
			return strPtr("https://flagcdn.com/jp.svg"), nil
		},
	}
	store := newStallingStore()
	deps, _ := newDeps(store)
	f := NewFlagFetcher(deps, api)

	done := make(chan *domain.CountryFlag)
	go func() {
		flag, err := f.Fetch(context.Background(), "Japan")
		assert.NoError(t, err)
		done <- flag
	}()

	// the first caller has seen a miss; a second caller completes the fetch
	<-store.stalled
	flag, err := f.Fetch(context.Background(), "Japan")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&api.flagCalls))

	close(store.resume)
	late := <-done

	require.NotNil(t, late)
	assert.Equal(t, flag.FlagURL, late.FlagURL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.flagCalls), "a stored flag must not be fetched again")
}

func TestSearchFetcher_ConcurrentMissesShareOneCall(t *testing.T) {
	release := make(chan struct{})
	api := &MockAPI{
		SearchFunc: func(ctx context.Context, query string) (*domain.SearchResult, error) {
			<-release
			return &domain.SearchResult{Search: []domain.MovieStub{{ImdbID: "tt1"}}, TotalResults: 1}, nil
		},
		DetailFunc: func(ctx context.Context, imdbID string) (*domain.MovieDetail, error) {
			<-release
			return &domain.MovieDetail{Title: "Heat", Year: 1995, Country: "USA"}, nil
		},
	}
	deps, _ := newDeps(cache.NewMemoryStore())
	search := NewSearchFetcher(deps, api)
	movies := NewMovieFetcher(deps, api)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := search.Fetch(context.Background(), "heat")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := movies.Fetch(context.Background(), "tt1")
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.searchCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.detailCalls))
}

func TestFetchers_CacheUnavailable(t *testing.T) {
	api := &MockAPI{}
	deps, _ := newDeps(&brokenStore{})

	_, err := NewSearchFetcher(deps, api).Fetch(context.Background(), "x")
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))

	_, err = NewMovieFetcher(deps, api).Fetch(context.Background(), "tt1")
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))

	_, err = NewFlagFetcher(deps, api).Fetch(context.Background(), "USA")
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))

	assert.Zero(t, api.searchCalls+api.detailCalls+api.flagCalls, "no upstream call without a readable cache")
}
