// Package fetcher downloads source documents to disk.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"sitewatch/pkg/httpclient"
)

// ErrUnexpectedStatus is returned when the server answers with a non-2xx status
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Fetcher downloads documents with a configured HTTP client. It never retries.
type Fetcher struct {
	client *httpclient.HTTPClient
}

// New creates a fetcher backed by the given client
func New(client *httpclient.HTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

// Download GETs url and writes the raw response body to dest.
// On failure no file is left behind at dest, as far as removal succeeds.
func (f *Fetcher) Download(ctx context.Context, url, dest string) error {
	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, url)
	}

	// an existing snapshot from a run in the same second is never overwritten
	file, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	return nil
}
