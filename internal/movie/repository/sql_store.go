package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/umanagarjuna/go-movie-aggregator/internal/movie/domain"
)

// SQLStore is the durable cache store. Queries are written with "?"
// placeholders and rebound for the connected driver.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

type searchRow struct {
	SearchKey    string `db:"search_key"`
	TotalResults int    `db:"total_results"`
	Results      string `db:"results"`
}

type countryRow struct {
	CountryName string  `db:"country_name"`
	FlagURL     *string `db:"flag_url"`
}

func (r *SQLStore) GetSearch(ctx context.Context, key string) (*domain.SearchResult, bool, error) {
	var row searchRow
	query := r.db.Rebind(`
        SELECT search_key, total_results, results
        FROM moviesearch
        WHERE search_key = ?`)

	err := r.db.GetContext(ctx, &row, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, unavailable("failed to get search", err)
	}

	result, err := row.decode()
	if err != nil {
		return nil, false, unavailable("failed to decode search", err)
	}
	return result, true, nil
}

func (r *SQLStore) PutSearch(ctx context.Context, key string, result *domain.SearchResult) error {
	stubs := result.Search
	if stubs == nil {
		stubs = []domain.MovieStub{}
	}
	data, err := json.Marshal(stubs)
	if err != nil {
		return fmt.Errorf("failed to marshal search results: %w", err)
	}

	query := r.db.Rebind(`
        INSERT INTO moviesearch (search_key, total_results, results)
        VALUES (?, ?, ?)
        ON CONFLICT (search_key) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, query, key, result.TotalResults, string(data)); err != nil {
		return unavailable("failed to insert search", err)
	}
	return nil
}

func (r *SQLStore) GetMovie(ctx context.Context, imdbID string) (*domain.MovieRecord, bool, error) {
	var detail domain.MovieDetail
	query := r.db.Rebind(`
        SELECT imdb_id, title, year, country
        FROM movie
        WHERE imdb_id = ?`)

	err := r.db.GetContext(ctx, &detail, query, imdbID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, unavailable("failed to get movie", err)
	}

	countries := []string{}
	query = r.db.Rebind(`
        SELECT country_name
        FROM moviecountry
        WHERE imdb_id = ?
        ORDER BY position`)

	if err := r.db.SelectContext(ctx, &countries, query, imdbID); err != nil {
		return nil, false, unavailable("failed to get movie countries", err)
	}

	return &domain.MovieRecord{Detail: detail, Countries: countries}, true, nil
}

// PutMovie writes the movie row, placeholder country rows and the
// moviecountry rows in one transaction, so a movie is never visible
// without its countries.
func (r *SQLStore) PutMovie(ctx context.Context, detail *domain.MovieDetail, countries []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
        INSERT INTO movie (imdb_id, title, year, country)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (imdb_id) DO NOTHING`),
		detail.ImdbID, detail.Title, detail.Year, detail.Country)
	if err != nil {
		return unavailable("failed to insert movie", err)
	}

	placeholder := tx.Rebind(`
        INSERT INTO country (country_name, flag_url, resolved)
        VALUES (?, NULL, FALSE)
        ON CONFLICT (country_name) DO NOTHING`)
	link := tx.Rebind(`
        INSERT INTO moviecountry (imdb_id, position, country_name)
        VALUES (?, ?, ?)
        ON CONFLICT (imdb_id, position) DO NOTHING`)

	for i, name := range countries {
		if _, err = tx.ExecContext(ctx, placeholder, name); err != nil {
			return unavailable("failed to insert country", err)
		}
		if _, err = tx.ExecContext(ctx, link, detail.ImdbID, i, name); err != nil {
			return unavailable("failed to insert movie country", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return unavailable("failed to commit movie", err)
	}
	return nil
}

func (r *SQLStore) GetFlag(ctx context.Context, countryName string) (*domain.CountryFlag, bool, error) {
	var row countryRow
	query := r.db.Rebind(`
        SELECT country_name, flag_url
        FROM country
        WHERE country_name = ? AND resolved = TRUE`)

	err := r.db.GetContext(ctx, &row, query, countryName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, unavailable("failed to get flag", err)
	}

	return &domain.CountryFlag{CountryName: row.CountryName, FlagURL: row.FlagURL}, true, nil
}

// PutFlag resolves a placeholder row or inserts a new one.
func (r *SQLStore) PutFlag(ctx context.Context, flag *domain.CountryFlag) error {
	query := r.db.Rebind(`
        INSERT INTO country (country_name, flag_url, resolved)
        VALUES (?, ?, TRUE)
        ON CONFLICT (country_name) DO UPDATE
        SET flag_url = excluded.flag_url, resolved = TRUE`)

	if _, err := r.db.ExecContext(ctx, query, flag.CountryName, flag.FlagURL); err != nil {
		return unavailable("failed to upsert flag", err)
	}
	return nil
}

func (r *SQLStore) Dump(ctx context.Context) (*domain.CacheDump, error) {
	dump := domain.NewCacheDump()

	var searches []searchRow
	if err := r.db.SelectContext(ctx, &searches,
		`SELECT search_key, total_results, results FROM moviesearch`); err != nil {
		return nil, unavailable("failed to list searches", err)
	}
	for _, row := range searches {
		result, err := row.decode()
		if err != nil {
			return nil, unavailable("failed to decode search", err)
		}
		dump.MovieSearch[row.SearchKey] = result
	}

	var movies []domain.MovieDetail
	if err := r.db.SelectContext(ctx, &movies,
		`SELECT imdb_id, title, year, country FROM movie`); err != nil {
		return nil, unavailable("failed to list movies", err)
	}
	for i := range movies {
		dump.MovieDetails[movies[i].ImdbID] = &movies[i]
	}

	var flags []countryRow
	if err := r.db.SelectContext(ctx, &flags,
		`SELECT country_name, flag_url FROM country WHERE resolved = TRUE`); err != nil {
		return nil, unavailable("failed to list flags", err)
	}
	for _, row := range flags {
		dump.CountryFlags[row.CountryName] = row.FlagURL
	}

	return dump, nil
}

func (r *SQLStore) Close() error {
	return r.db.Close()
}

func (row searchRow) decode() (*domain.SearchResult, error) {
	result := &domain.SearchResult{TotalResults: row.TotalResults}
	if err := json.Unmarshal([]byte(row.Results), &result.Search); err != nil {
		return nil, err
	}
	return result, nil
}

func unavailable(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrCacheUnavailable, msg, err)
}
