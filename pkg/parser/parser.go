// Package parser extracts URL sets from saved sitemap and feed snapshots.
package parser

import (
	"errors"
	"fmt"

	"sitewatch/pkg/domain"
	"sitewatch/pkg/urls"
)

var (
	// ErrMalformed is returned when a snapshot cannot be parsed as its kind
	ErrMalformed = errors.New("malformed document")

	// ErrSitemapIndex is returned for a sitemap index; its children are not expanded
	ErrSitemapIndex = errors.New("document is a sitemap index")
)

// Parser defines the interface for snapshot parsers (sitemap, RSS, etc.)
type Parser interface {
	// ParseFile returns the URLs found in the file. On error the set is empty, never nil.
	ParseFile(path string) (urls.Set, error)
}

// ForKind returns the parser for a source kind
func ForKind(kind domain.SourceKind) (Parser, error) {
	switch kind {
	case domain.SitemapSource:
		return NewSitemapParser(), nil
	case domain.FeedSource:
		return NewFeedParser(), nil
	default:
		return nil, fmt.Errorf("no parser for source kind %q", kind)
	}
}
