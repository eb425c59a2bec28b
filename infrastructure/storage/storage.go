// Package storage talks to the object storage HTTP API that holds thumbnails.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/fetch"
)

// Client uploads objects into a single bucket.
type Client struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

// NewClient builds a storage client whose requests go through transport.
// A nil transport gets the default chain with retries.
func NewClient(baseURL, bucket, serviceKey string, transport fetch.FetchFunc) *Client {
	if transport == nil {
		transport = fetch.Compose(fetch.FromTransport(nil), fetch.WithRetry(fetch.DefaultRetryConfig()))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: fetch.NewClient(transport),
	}
}

func (c *Client) objectURL(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		for _, part := range strings.Split(s, "/") {
			escaped = append(escaped, url.PathEscape(part))
		}
	}
	return c.baseURL + "/storage/v1/object/" + strings.Join(escaped, "/")
}

// Upload stores body at path. With Upsert false an existing object is never replaced.
func (c *Client) Upload(ctx context.Context, path string, body []byte, opts repository.UploadOptions) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(c.bucket, path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if c.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
		req.Header.Set("apikey", c.serviceKey)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if opts.CacheControl != "" {
		req.Header.Set("Cache-Control", opts.CacheControl)
	}
	req.Header.Set("x-upsert", strconv.FormatBool(opts.Upsert))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("failed to upload %s: %w", path, &fetch.HTTPError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			URL:        req.URL.String(),
			Attempts:   1,
		})
	}
	return nil
}

// PublicURL returns the public address of the object at path.
func (c *Client) PublicURL(path string) string {
	return c.objectURL("public", c.bucket, path)
}
