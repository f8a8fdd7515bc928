// Package content resolves human-readable page titles for issue bodies.
package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ErrNoTitle is returned when a page has no usable title
var ErrNoTitle = errors.New("title not found in HTML")

// ExtractTitle extracts the page title from HTML content.
// readability goes first; goquery covers pages it cannot make sense of.
func ExtractTitle(htmlContent string) (string, error) {
	article, err := readability.FromReader(strings.NewReader(htmlContent), nil)
	if err == nil {
		if title := cleanTitle(article.Title); title != "" {
			return title, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	if title, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && cleanTitle(title) != "" {
		return cleanTitle(title), nil
	}
	if title := cleanTitle(doc.Find("title").First().Text()); title != "" {
		return title, nil
	}
	if title := cleanTitle(doc.Find("h1").First().Text()); title != "" {
		return title, nil
	}

	return "", ErrNoTitle
}

// cleanTitle collapses whitespace so a title fits on one markdown line
func cleanTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
