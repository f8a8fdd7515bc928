package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientType(t *testing.T) {
	ct, err := ParseClientType("")
	require.NoError(t, err)
	assert.Equal(t, DefaultClient, ct)

	ct, err = ParseClientType("cloudflare")
	require.NoError(t, err)
	assert.Equal(t, CloudflareClient, ct)

	_, err = ParseClientType("netscape")
	assert.Error(t, err)
}

func TestGet_SetsProfileHeaders(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(CloudflareClient, 0)
	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "curl/8.7.1", gotAgent)

	client = NewClient(BrowserClient, 0)
	resp, err = client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Contains(t, gotAgent, "Mozilla/5.0")
}

func TestGet_StopsAfterRedirectCap(t *testing.T) {
	hits := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Redirect(w, r, server.URL+"/next", http.StatusFound)
	}))
	defer server.Close()

	resp, err := NewClient(DefaultClient, 0).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, maxRedirects+1, hits)
}
