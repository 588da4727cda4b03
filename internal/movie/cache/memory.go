package cache

import (
	"context"
	"sync"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

// MemoryStore is the ephemeral in-process store. Entries live until the
// process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	searches map[string]*domain.SearchResult
	movies   map[string]*domain.MovieRecord
	flags    map[string]*domain.CountryFlag
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		searches: make(map[string]*domain.SearchResult),
		movies:   make(map[string]*domain.MovieRecord),
		flags:    make(map[string]*domain.CountryFlag),
	}
}

func (s *MemoryStore) GetSearch(ctx context.Context, key string) (*domain.SearchResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, found := s.searches[key]
	return result, found, nil
}

func (s *MemoryStore) PutSearch(ctx context.Context, key string, result *domain.SearchResult) error {
	stored := &domain.SearchResult{
		Search:       append([]domain.MovieStub{}, result.Search...),
		TotalResults: result.TotalResults,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[key] = stored
	return nil
}

func (s *MemoryStore) GetMovie(ctx context.Context, imdbID string) (*domain.MovieRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, found := s.movies[imdbID]
	return record, found, nil
}

// PutMovie stores the detail with its country list inline.
func (s *MemoryStore) PutMovie(ctx context.Context, detail *domain.MovieDetail, countries []string) error {
	record := &domain.MovieRecord{
		Detail:    *detail,
		Countries: append([]string(nil), countries...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies[detail.ImdbID] = record
	return nil
}

func (s *MemoryStore) GetFlag(ctx context.Context, countryName string) (*domain.CountryFlag, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flag, found := s.flags[countryName]
	return flag, found, nil
}

func (s *MemoryStore) PutFlag(ctx context.Context, flag *domain.CountryFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flag.CountryName] = flag
	return nil
}

func (s *MemoryStore) Dump(ctx context.Context) (*domain.CacheDump, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dump := domain.NewCacheDump()
	for key, result := range s.searches {
		dump.MovieSearch[key] = result
	}
	for id, record := range s.movies {
		detail := record.Detail
		dump.MovieDetails[id] = &detail
	}
	for name, flag := range s.flags {
		dump.CountryFlags[name] = flag.FlagURL
	}
	return dump, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
