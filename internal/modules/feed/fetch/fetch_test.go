package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedsensor/internal/modules/feed/fetch"
)

func TestFetchReturnsBody(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	client := fetch.New(5 * time.Second)
	body, err := client.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<rss></rss>", string(body))
	assert.Contains(t, gotUserAgent, "Mozilla/5.0")
}

func TestFetchNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := fetch.New(5 * time.Second)
	_, err := client.Fetch(context.Background(), server.URL)

	assert.Error(t, err)
}

func TestFetchFileScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte("<rss version=\"2.0\"></rss>"), 0644))

	client := fetch.New(5 * time.Second)
	body, err := client.Fetch(context.Background(), "file://"+path)

	require.NoError(t, err)
	assert.Contains(t, string(body), "<rss")
}

func TestProbeAcceptsAnyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := fetch.New(5 * time.Second)

	assert.NoError(t, client.Probe(context.Background(), server.URL))
}

func TestProbeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := fetch.New(5 * time.Second)

	assert.Error(t, client.Probe(context.Background(), url))
}
