package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/fetcher"
	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/metrics"
)

const defaultWorkers = 8

type MovieService struct {
	store   domain.CacheStore
	search  *fetcher.SearchFetcher
	movies  *fetcher.MovieFetcher
	flags   *fetcher.FlagFetcher
	logger  *zap.Logger
	metrics metrics.Metrics
	workers int
}

type Config struct {
	// Workers bounds concurrent upstream fetches of one ListMovies call.
	Workers int
}

func NewMovieService(
	store domain.CacheStore,
	movieAPI fetcher.MovieAPI,
	flagAPI fetcher.FlagAPI,
	publisher domain.EventPublisher,
	logger *zap.Logger,
	metricsCollector metrics.Metrics,
	config Config,
) *MovieService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metricsCollector == nil {
		metricsCollector = metrics.Noop{}
	}
	workers := config.Workers
	if workers < 1 {
		workers = defaultWorkers
	}

	deps := fetcher.Deps{
		Store:     store,
		Publisher: publisher,
		Metrics:   metricsCollector,
		Logger:    logger,
	}

	return &MovieService{
		store:   store,
		search:  fetcher.NewSearchFetcher(deps, movieAPI),
		movies:  fetcher.NewMovieFetcher(deps, movieAPI),
		flags:   fetcher.NewFlagFetcher(deps, flagAPI),
		logger:  logger,
		metrics: metricsCollector,
		workers: workers,
	}
}

// ListMovies searches for filter, takes the requested page of hits and joins
// each movie with its country flags. Upstream failures shrink the result;
// only a cache store failure is returned as an error.
func (s *MovieService) ListMovies(ctx context.Context, filter string,
	page, pageLimit int) ([]domain.AggregatedMovie, error) {

	start := time.Now()
	defer func() {
		s.metrics.RecordDuration(metrics.ListMovies, time.Since(start))
	}()
	s.metrics.IncrementCounter(metrics.ListMovies)

	// fetches populate the cache even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	result, err := s.search.Fetch(ctx, filter)
	if err != nil {
		if errors.Is(err, domain.ErrCacheUnavailable) {
			return nil, err
		}
		s.logger.Warn("Search unavailable, returning empty list",
			zap.Error(err), zap.String("filter", filter))
		return []domain.AggregatedMovie{}, nil
	}

	stubs := paginate(result.Search, page, pageLimit)
	if len(stubs) == 0 {
		return []domain.AggregatedMovie{}, nil
	}

	records, err := s.fetchMovies(ctx, stubs)
	if err != nil {
		return nil, err
	}

	countries, err := s.fetchFlags(ctx, records)
	if err != nil {
		return nil, err
	}

	movies := make([]domain.AggregatedMovie, 0, len(records))
	for i, record := range records {
		if record == nil {
			s.metrics.IncrementCounter(metrics.MoviesDropped)
			continue
		}
		movies = append(movies, domain.AggregatedMovie{
			Title:     record.Detail.Title,
			Year:      record.Detail.Year,
			Countries: countries[i],
		})
	}

	return movies, nil
}

// DumpCache returns everything the cache store holds.
func (s *MovieService) DumpCache(ctx context.Context) (*domain.CacheDump, error) {
	return s.store.Dump(ctx)
}

// fetchMovies resolves the page on the worker pool. records[i] stays nil
// when the detail of stubs[i] could not be fetched.
func (s *MovieService) fetchMovies(ctx context.Context,
	stubs []domain.MovieStub) ([]*domain.MovieRecord, error) {

	records := make([]*domain.MovieRecord, len(stubs))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, stub := range stubs {
		g.Go(func() error {
			record, err := s.movies.Fetch(ctx, stub.ImdbID)
			if err != nil {
				if errors.Is(err, domain.ErrCacheUnavailable) {
					return err
				}
				s.logger.Warn("Dropping movie without details",
					zap.Error(err), zap.String("imdb_id", stub.ImdbID))
				return nil
			}
			records[i] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// fetchFlags resolves every (movie, country) pair of the page. A flag that
// could not be fetched is rendered as null.
func (s *MovieService) fetchFlags(ctx context.Context,
	records []*domain.MovieRecord) ([][]domain.CountryView, error) {

	views := make([][]domain.CountryView, len(records))

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, record := range records {
		if record == nil {
			continue
		}

		views[i] = make([]domain.CountryView, len(record.Countries))
		for j, name := range record.Countries {
			views[i][j].Name = name
			g.Go(func() error {
				flag, err := s.flags.Fetch(ctx, name)
				if err != nil {
					if errors.Is(err, domain.ErrCacheUnavailable) {
						return err
					}
					s.logger.Warn("Flag unavailable",
						zap.Error(err), zap.String("country", name))
					return nil
				}
				views[i][j].Flag = flag.FlagURL
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// paginate returns stubs[(page-1)*limit : page*limit], clamped. Pages or
// limits below one select nothing.
func paginate(stubs []domain.MovieStub, page, pageLimit int) []domain.MovieStub {
	if page < 1 || pageLimit < 1 {
		return nil
	}
	if page-1 > len(stubs)/pageLimit {
		return nil
	}

	start := (page - 1) * pageLimit
	if start >= len(stubs) {
		return nil
	}

	end := len(stubs)
	if pageLimit < end-start {
		end = start + pageLimit
	}
	return stubs[start:end]
}
