// Package fetch retrieves raw feed documents over HTTP. The file:// scheme
// is supported for local fixtures.
package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/samber/oops"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// maxResponseSize caps feed documents at 10MB.
	maxResponseSize = 10 * 1024 * 1024

	// probeTimeout bounds the reachability check issued when a sensor is
	// created so a dead URL cannot hang the request.
	probeTimeout = 10 * time.Second
)

// Some feeds refuse requests that do not look like a browser.
var browserHeaders = map[string]string{
	"User-Agent":                userAgent,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

// Client is an HTTP feed fetcher with a request timeout.
type Client struct {
	http *http.Client
}

// New creates a fetch client. file:// URLs resolve against the filesystem
// root.
func New(timeout time.Duration) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Fetch retrieves the document at feedURL. Non-200 responses and oversized
// bodies are errors; there is no retry.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	resp, err := c.get(ctx, feedURL)
	if err != nil {
		return nil, oops.With("feed_url", feedURL, "context", "failed to fetch feed").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, oops.With("feed_url", feedURL, "status_code", resp.StatusCode).
			Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, oops.With("feed_url", feedURL, "context", "failed to read feed body").Wrap(err)
	}
	if len(body) > maxResponseSize {
		return nil, oops.With("feed_url", feedURL).Errorf("feed document exceeds %d bytes", maxResponseSize)
	}

	return body, nil
}

// Probe checks that feedURL is reachable. Any HTTP response counts as
// reachable; only transport failures are errors.
func (c *Client) Probe(ctx context.Context, feedURL string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	resp, err := c.get(ctx, feedURL)
	if err != nil {
		return oops.With("feed_url", feedURL, "context", "feed is not reachable").Wrap(err)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
	resp.Body.Close()
	return nil
}

func (c *Client) get(ctx context.Context, feedURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	return c.http.Do(req)
}
