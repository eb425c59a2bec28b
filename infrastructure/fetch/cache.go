package fetch

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
)

// CacheTTLHeader overrides the cache TTL (seconds) for one request. It is
// consumed by WithCache and never sent to the origin.
const CacheTTLHeader = "X-Cache-TTL"

// CacheConfig configures WithCache.
type CacheConfig struct {
	Storage repository.ICacheStorage
	// TTL is the default entry lifetime. Zero defers to the storage default.
	TTL time.Duration
	// DisableETag turns off If-None-Match revalidation and ETag capture.
	DisableETag bool
}

// CacheKey identifies a request in the cache storage.
func CacheKey(req *http.Request) string {
	return req.Method + ":" + req.URL.String()
}

// WithCache adds ETag revalidation to GET requests. A 304 is answered from the
// stored snapshot; a successful response carrying an ETag replaces it.
func WithCache(cfg CacheConfig) (Middleware, error) {
	if cfg.Storage == nil {
		return nil, ErrNoStorage
	}
	return func(next FetchFunc) FetchFunc {
		return func(req *http.Request) (*http.Response, error) {
			ttl := cfg.TTL
			cloned := false
			if raw := req.Header.Get(CacheTTLHeader); raw != "" {
				req = req.Clone(req.Context())
				cloned = true
				req.Header.Del(CacheTTLHeader)
				if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
					ttl = time.Duration(seconds) * time.Second
				}
			}
			if req.Method != http.MethodGet || cfg.DisableETag {
				return next(req)
			}

			ctx := req.Context()
			key := CacheKey(req)
			cached, err := cfg.Storage.Get(ctx, key)
			if err != nil {
				return nil, err
			}

			if cached != nil && cached.ETag != "" {
				if !cloned {
					req = req.Clone(ctx)
				}
				if req.Header == nil {
					req.Header = make(http.Header)
				}
				req.Header.Set("If-None-Match", cached.ETag)
			}

			resp, err := next(req)
			if err != nil {
				return nil, err
			}

			if cached != nil && resp.StatusCode == http.StatusNotModified {
				drain(resp)
				return responseFromCache(req, cached), nil
			}

			etag := resp.Header.Get("ETag")
			if etag == "" || resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return resp, nil
			}

			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("fetch: read body of %s: %w", req.URL, err)
			}
			resp.Body = io.NopCloser(bytes.NewReader(body))

			entry := &model.CachedResponse{
				Body:       body,
				ETag:       etag,
				Headers:    flattenHeader(resp.Header),
				Status:     resp.StatusCode,
				StatusText: statusText(resp),
			}
			if err := cfg.Storage.Set(ctx, key, entry, ttl); err != nil {
				return nil, err
			}
			return resp, nil
		}
	}, nil
}

func flattenHeader(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func responseFromCache(req *http.Request, cached *model.CachedResponse) *http.Response {
	header := make(http.Header, len(cached.Headers))
	for name, value := range cached.Headers {
		header.Set(name, value)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", cached.Status, cached.StatusText),
		StatusCode:    cached.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(cached.Body)),
		ContentLength: int64(len(cached.Body)),
		Request:       req,
	}
}
