package domain

import "fmt"

// SourceKind identifies the document format published by a website
type SourceKind string

const (
	// SitemapSource is an XML sitemap (urlset/url/loc)
	SitemapSource SourceKind = "sitemap"

	// FeedSource is an RSS or Atom feed
	FeedSource SourceKind = "feed"
)

// Source is one watched website, loaded from configuration once per run
type Source struct {
	Name string     // Unique identifier, used in every file name
	Kind SourceKind // sitemap or feed
	URL  string     // Where the document is fetched from
}

// String returns a short description used in log lines
func (s Source) String() string {
	return fmt.Sprintf("%s (%s %s)", s.Name, s.Kind, s.URL)
}
