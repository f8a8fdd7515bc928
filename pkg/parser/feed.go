package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"

	"sitewatch/pkg/urls"
)

// FeedParser handles RSS/Atom feed parsing operations
type FeedParser struct {
	feedParser *gofeed.Parser
}

// NewFeedParser creates a new feed parser
func NewFeedParser() *FeedParser {
	return &FeedParser{
		feedParser: gofeed.NewParser(),
	}
}

// ParseFile parses a saved feed
func (p *FeedParser) ParseFile(path string) (urls.Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return urls.Set{}, fmt.Errorf("failed to open feed: %w", err)
	}
	defer file.Close()

	feed, err := p.feedParser.Parse(file)
	if err != nil {
		return urls.Set{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	set := urls.NewSet()
	for _, item := range feed.Items {
		if link := extractLink(item); link != "" {
			set.Add(link)
		}
	}

	return set, nil
}

// ParseFeedFile parses a saved RSS or Atom feed into the set of entry links
func ParseFeedFile(path string) (urls.Set, error) {
	return NewFeedParser().ParseFile(path)
}

// extractLink returns the item link, falling back to a GUID that is itself a URL
func extractLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(item.GUID); strings.HasPrefix(guid, "http") {
		return guid
	}
	return ""
}
