package cachekey

import (
	"fmt"
	"strings"
)

// Kind identifies one independent cache key space
type Kind string

const (
	KindSearch Kind = "search"
	KindMovie  Kind = "movie"
	KindFlag   Kind = "flag"
)

// Kinds lists every key space in dump order.
var Kinds = []Kind{KindSearch, KindMovie, KindFlag}

// NormalizeSearch turns a user filter into its case-insensitive search key.
func NormalizeSearch(filter string) string {
	return strings.ToUpper(strings.TrimSpace(filter))
}

// Prefixed builds a namespaced key, e.g. "search:BATMAN".
func Prefixed(kind Kind, key string) string {
	return fmt.Sprintf("%s:%s", kind, key)
}

// Pattern matches every key of a kind.
func Pattern(kind Kind) string {
	return fmt.Sprintf("%s:*", kind)
}

// Strip removes the kind prefix from a namespaced key.
func Strip(kind Kind, key string) string {
	return strings.TrimPrefix(key, string(kind)+":")
}
