package domain

import "context"

// CacheStore persists the three resource kinds. Implementations must be
// safe for concurrent use and wrap their failures in ErrCacheUnavailable.
type CacheStore interface {
	GetSearch(ctx context.Context, key string) (*SearchResult, bool, error)
	PutSearch(ctx context.Context, key string, result *SearchResult) error

	// PutMovie records the detail and its country associations as one unit.
	GetMovie(ctx context.Context, imdbID string) (*MovieRecord, bool, error)
	PutMovie(ctx context.Context, detail *MovieDetail, countries []string) error

	GetFlag(ctx context.Context, countryName string) (*CountryFlag, bool, error)
	PutFlag(ctx context.Context, flag *CountryFlag) error

	Dump(ctx context.Context) (*CacheDump, error)
	Close() error
}

// EventPublisher interface for publishing cache population events
type EventPublisher interface {
	PublishSearchCached(ctx context.Context, key string, result *SearchResult) error
	PublishMovieCached(ctx context.Context, record *MovieRecord) error
	PublishFlagCached(ctx context.Context, flag *CountryFlag) error
	Close() error
}
