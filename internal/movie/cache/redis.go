package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
	"github.com/umanagarjuna/go-movie-aggregator/pkg/cachekey"
)

// Entries never expire.
const noExpiry = 0

// RedisStore keeps the three key spaces in Redis under "search:", "movie:"
// and "flag:" prefixes. A movie and its countries are one JSON value, so a
// single SET writes them together.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (c *RedisStore) GetSearch(ctx context.Context, key string) (*domain.SearchResult, bool, error) {
	var result domain.SearchResult
	found, err := c.get(ctx, cachekey.Prefixed(cachekey.KindSearch, key), &result)
	if err != nil || !found {
		return nil, false, err
	}
	return &result, true, nil
}

func (c *RedisStore) PutSearch(ctx context.Context, key string, result *domain.SearchResult) error {
	return c.set(ctx, cachekey.Prefixed(cachekey.KindSearch, key), result)
}

func (c *RedisStore) GetMovie(ctx context.Context, imdbID string) (*domain.MovieRecord, bool, error) {
	var record domain.MovieRecord
	found, err := c.get(ctx, cachekey.Prefixed(cachekey.KindMovie, imdbID), &record)
	if err != nil || !found {
		return nil, false, err
	}
	return &record, true, nil
}

func (c *RedisStore) PutMovie(ctx context.Context, detail *domain.MovieDetail, countries []string) error {
	record := &domain.MovieRecord{Detail: *detail, Countries: countries}
	if record.Countries == nil {
		record.Countries = []string{}
	}
	return c.set(ctx, cachekey.Prefixed(cachekey.KindMovie, detail.ImdbID), record)
}

func (c *RedisStore) GetFlag(ctx context.Context, countryName string) (*domain.CountryFlag, bool, error) {
	var flag domain.CountryFlag
	found, err := c.get(ctx, cachekey.Prefixed(cachekey.KindFlag, countryName), &flag)
	if err != nil || !found {
		return nil, false, err
	}
	return &flag, true, nil
}

func (c *RedisStore) PutFlag(ctx context.Context, flag *domain.CountryFlag) error {
	return c.set(ctx, cachekey.Prefixed(cachekey.KindFlag, flag.CountryName), flag)
}

func (c *RedisStore) Dump(ctx context.Context) (*domain.CacheDump, error) {
	dump := domain.NewCacheDump()

	for _, kind := range cachekey.Kinds {
		keys, err := c.scan(ctx, kind)
		if err != nil {
			return nil, err
		}

		for _, key := range keys {
			name := cachekey.Strip(kind, key)
			switch kind {
			case cachekey.KindSearch:
				result, found, err := c.GetSearch(ctx, name)
				if err != nil {
					return nil, err
				}
				if found {
					dump.MovieSearch[name] = result
				}
			case cachekey.KindMovie:
				record, found, err := c.GetMovie(ctx, name)
				if err != nil {
					return nil, err
				}
				if found {
					detail := record.Detail
					dump.MovieDetails[name] = &detail
				}
			case cachekey.KindFlag:
				flag, found, err := c.GetFlag(ctx, name)
				if err != nil {
					return nil, err
				}
				if found {
					dump.CountryFlags[name] = flag.FlagURL
				}
			}
		}
	}

	return dump, nil
}

func (c *RedisStore) Close() error {
	return c.client.Close()
}

func (c *RedisStore) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("%w: cache get error: %w", domain.ErrCacheUnavailable, err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("%w: cache unmarshal error: %w", domain.ErrCacheUnavailable, err)
	}
	return true, nil
}

func (c *RedisStore) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, noExpiry).Err(); err != nil {
		return fmt.Errorf("%w: cache set error: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *RedisStore) scan(ctx context.Context, kind cachekey.Kind) ([]string, error) {
	iter := c.client.Scan(ctx, 0, cachekey.Pattern(kind), 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: cache scan error: %w", domain.ErrCacheUnavailable, err)
	}
	return keys, nil
}
