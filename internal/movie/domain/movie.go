package domain

import "strings"

// CountrySeparator splits the upstream Country field into names.
const CountrySeparator = ", "

// MovieStub is one entry of a movie search result
type MovieStub struct {
	ImdbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year,omitempty"`
	Type   string `json:"Type,omitempty"`
	Poster string `json:"Poster,omitempty"`
}

// SearchResult represents the cached answer to a search query
type SearchResult struct {
	Search       []MovieStub `json:"Search"`
	TotalResults int         `json:"totalResults"`
}

// MovieDetail holds the retained fields of a movie detail lookup
type MovieDetail struct {
	ImdbID  string `json:"imdbID" db:"imdb_id"`
	Title   string `json:"Title" db:"title"`
	Year    int    `json:"Year" db:"year"`
	Country string `json:"Country" db:"country"`
}

// MovieRecord is a movie detail together with its country names, in the
// order they appear in the Country field.
type MovieRecord struct {
	Detail    MovieDetail `json:"detail"`
	Countries []string    `json:"countries"`
}

// CountryFlag maps a country name to its flag image. A nil FlagURL is a
// cached "no flag" answer.
type CountryFlag struct {
	CountryName string  `json:"name" db:"country_name"`
	FlagURL     *string `json:"flag" db:"flag_url"`
}

// CountryView is a country entry of an aggregated movie
type CountryView struct {
	Name string  `json:"name"`
	Flag *string `json:"flag"`
}

// AggregatedMovie is the response shape of ListMovies
type AggregatedMovie struct {
	Title     string        `json:"title"`
	Year      int           `json:"year"`
	Countries []CountryView `json:"countries"`
}

// CacheDump is the full content of the three cached resource kinds
type CacheDump struct {
	MovieSearch  map[string]*SearchResult `json:"movieSearch"`
	MovieDetails map[string]*MovieDetail  `json:"movieDetails"`
	CountryFlags map[string]*string       `json:"countryFlags"`
}

// NewCacheDump returns a dump with all maps allocated.
func NewCacheDump() *CacheDump {
	return &CacheDump{
		MovieSearch:  make(map[string]*SearchResult),
		MovieDetails: make(map[string]*MovieDetail),
		CountryFlags: make(map[string]*string),
	}
}

// SplitCountries parses a Country field left to right, dropping empty names.
// Names are kept exactly as given since flags are keyed by them.
func SplitCountries(field string) []string {
	parts := strings.Split(field, CountrySeparator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}
