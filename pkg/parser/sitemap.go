package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"sitewatch/pkg/urls"
)

const (
	urlElement   = "url"
	locElement   = "loc"
	indexElement = "sitemapindex"
)

// SitemapParser handles sitemap parsing operations
type SitemapParser struct{}

// NewSitemapParser creates a new sitemap parser
func NewSitemapParser() *SitemapParser {
	return &SitemapParser{}
}

// ParseFile parses a saved sitemap
func (p *SitemapParser) ParseFile(path string) (urls.Set, error) {
	return ParseSitemapFile(path)
}

// ParseSitemapFile collects the text of every loc element whose parent is a url element.
// Both must be in the namespace of the document's root element; the url element may sit
// at any depth below the root.
func ParseSitemapFile(path string) (urls.Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return urls.Set{}, fmt.Errorf("failed to open sitemap: %w", err)
	}
	defer file.Close()

	set, err := parseSitemap(file)
	if err != nil {
		return urls.Set{}, err
	}
	return set, nil
}

// parseSitemap walks the token stream keeping a stack of open elements
func parseSitemap(r io.Reader) (urls.Set, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	set := urls.NewSet()
	var (
		stack     []xml.Name
		namespace string
		text      strings.Builder
		inLoc     bool
		sawRoot   bool
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if sawRoot {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				sawRoot = true
				namespace = t.Name.Space
				if t.Name.Local == indexElement {
					return nil, ErrSitemapIndex
				}
			}
			stack = append(stack, t.Name)
			// only text before a loc's first child element counts
			inLoc = isLocInURL(stack, namespace)
			if inLoc {
				text.Reset()
			}

		case xml.CharData:
			if inLoc {
				text.Write(t)
			}

		case xml.EndElement:
			if isLocInURL(stack, namespace) {
				// pretty-printed sitemaps wrap the URL in indentation
				if loc := strings.TrimSpace(text.String()); loc != "" {
					set.Add(loc)
				}
				text.Reset()
			}
			stack = stack[:len(stack)-1]
			inLoc = false
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return set, nil
}

// isLocInURL reports whether the innermost open element is a loc directly under a
// url element below the root, both in the root namespace
func isLocInURL(stack []xml.Name, namespace string) bool {
	n := len(stack)
	if n < 3 {
		return false
	}
	loc, parent := stack[n-1], stack[n-2]
	return loc.Local == locElement && loc.Space == namespace &&
		parent.Local == urlElement && parent.Space == namespace
}
