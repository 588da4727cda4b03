package domain

import "errors"

var (
	// ErrUpstreamUnavailable covers non-200 answers, transport errors and
	// undecodable bodies from any upstream API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNotFound is a well-formed upstream answer with no match.
	ErrNotFound = errors.New("not found")

	// ErrCacheUnavailable means the cache store could not be read or written.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
