package urls

import (
	"context"
	"fmt"
)

// UrlFilter defines the interface for URL filtering
type UrlFilter interface {
	ShouldKeep(ctx context.Context, url string) (bool, error)
}

// AlreadyFetchedFilter filters out URLs that already exist in the provided set
type AlreadyFetchedFilter struct {
	fetchedURLs Set
}

// NewAlreadyFetchedFilter creates a new already-fetched filter
func NewAlreadyFetchedFilter(fetchedURLs Set) *AlreadyFetchedFilter {
	return &AlreadyFetchedFilter{
		fetchedURLs: fetchedURLs,
	}
}

// ShouldKeep returns false if URL is already in the fetched set
func (f *AlreadyFetchedFilter) ShouldKeep(ctx context.Context, urlStr string) (bool, error) {
	return !f.fetchedURLs[urlStr], nil
}

// Apply runs every URL through the filters and returns the ones all filters keep
func Apply(ctx context.Context, candidates []string, filters ...UrlFilter) ([]string, error) {
	kept := make([]string, 0, len(candidates))
	for _, u := range candidates {
		keep := true
		for _, f := range filters {
			ok, err := f.ShouldKeep(ctx, u)
			if err != nil {
				return nil, fmt.Errorf("failed to filter %s: %w", u, err)
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, u)
		}
	}
	return kept, nil
}
