package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"sitewatch/pkg/httpclient"
)

// maxPageBytes bounds how much of a page is read when looking for its title
const maxPageBytes = 2 << 20

// TitleResolver fetches pages and extracts their titles, remembering results per URL
type TitleResolver struct {
	client *httpclient.HTTPClient

	mu    sync.Mutex
	cache map[string]string
}

// NewTitleResolver creates a resolver that fetches pages with client
func NewTitleResolver(client *httpclient.HTTPClient) *TitleResolver {
	return &TitleResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// Resolve returns the title of the page at url
func (r *TitleResolver) Resolve(ctx context.Context, url string) (string, error) {
	r.mu.Lock()
	title, ok := r.cache[url]
	r.mu.Unlock()
	if ok {
		return title, nil
	}

	resp, err := r.client.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	title, err = ExtractTitle(string(body))
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[url] = title
	r.mu.Unlock()
	return title, nil
}
