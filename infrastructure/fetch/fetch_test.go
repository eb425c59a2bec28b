package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

// statusFetch answers every request with status and counts the calls.
func statusFetch(status int, calls *int32, bodies *[]*trackedBody) FetchFunc {
	return func(req *http.Request) (*http.Response, error) {
		atomic.AddInt32(calls, 1)
		body := &trackedBody{Reader: strings.NewReader("failure body")}
		if bodies != nil {
			*bodies = append(*bodies, body)
		}
		return &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     http.Header{},
			Body:       body,
			Request:    req,
		}, nil
	}
}

func newRequest(t *testing.T, method, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	require.NoError(t, err)
	return req
}

func TestCompose_FirstMiddlewareIsOutermost(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next FetchFunc) FetchFunc {
			return func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next(req)
			}
		}
	}
	var calls int32
	fn := Compose(statusFetch(http.StatusOK, &calls, nil), tag("outer"), tag("inner"))

	_, err := fn(newRequest(t, http.MethodGet, "https://example.com"))

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestWithRetry_BoundedAttempts(t *testing.T) {
	for _, retries := range []int{0, 1, 2, 5} {
		var calls int32
		var bodies []*trackedBody
		fn := Compose(statusFetch(http.StatusInternalServerError, &calls, &bodies),
			WithRetry(RetryConfig{Retries: retries, AbortOn404: true}))

		resp, err := fn(newRequest(t, http.MethodGet, "https://example.com/fail"))

		assert.Nil(t, resp)
		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
		assert.Equal(t, "Internal Server Error", httpErr.StatusText)
		assert.Equal(t, int32(retries+1), calls)
		for _, body := range bodies {
			assert.True(t, body.closed, "failed bodies are drained and closed")
		}
	}
}

func TestWithRetry_NotFoundAbortsByDefault(t *testing.T) {
	var calls int32
	fn := Compose(statusFetch(http.StatusNotFound, &calls, nil), WithRetry(DefaultRetryConfig()))

	_, err := fn(newRequest(t, http.MethodGet, "https://example.com/missing"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls)
}

func TestWithRetry_NotFoundRetriedWhenAbortDisabled(t *testing.T) {
	var calls int32
	fn := Compose(statusFetch(http.StatusNotFound, &calls, nil),
		WithRetry(RetryConfig{Retries: 2, AbortOn404: false}))

	_, err := fn(newRequest(t, http.MethodGet, "https://example.com/missing"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(3), calls)
}

func TestWithRetry_NotModifiedIsNotAFailure(t *testing.T) {
	var calls int32
	fn := Compose(statusFetch(http.StatusNotModified, &calls, nil), WithRetry(DefaultRetryConfig()))

	resp, err := fn(newRequest(t, http.MethodGet, "https://example.com"))

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Equal(t, int32(1), calls)
}

func TestWithRetry_RecoversAfterTransientFailure(t *testing.T) {
	var calls int32
	base := func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset")
		}
		body, _ := io.ReadAll(req.Body)
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(body))}, nil
	}
	fn := Compose(base, WithRetry(DefaultRetryConfig()))
	req, err := http.NewRequest(http.MethodPost, "https://example.com/upload", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	resp, err := fn(req)

	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "payload", string(body), "the request body is replayed on retry")
	assert.Equal(t, int32(2), calls)
}

func TestWithCache_RequiresStorage(t *testing.T) {
	_, err := WithCache(CacheConfig{})
	assert.ErrorIs(t, err, ErrNoStorage)
}

func TestWithCache_MissThenNotModifiedServesCachedBody(t *testing.T) {
	var requests int32
	var seenIfNoneMatch []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		seenIfNoneMatch = append(seenIfNoneMatch, r.Header.Get("If-None-Match"))
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("B"))
	}))
	defer server.Close()

	storage := cache.NewMemoryStorage(0)
	withCache, err := WithCache(CacheConfig{Storage: storage})
	require.NoError(t, err)
	fn := Compose(FromTransport(nil), WithRetry(DefaultRetryConfig()), withCache)

	first, err := fn(newRequest(t, http.MethodGet, server.URL+"/asset"))
	require.NoError(t, err)
	firstBody, _ := io.ReadAll(first.Body)

	second, err := fn(newRequest(t, http.MethodGet, server.URL+"/asset"))
	require.NoError(t, err)
	secondBody, _ := io.ReadAll(second.Body)

	assert.Equal(t, "B", string(firstBody))
	assert.Equal(t, "B", string(secondBody))
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "text/plain", second.Header.Get("Content-Type"))
	assert.Equal(t, []string{"", `"v1"`}, seenIfNoneMatch)
	assert.Equal(t, int32(2), requests)
}

func TestWithCache_NewETagReplacesEntry(t *testing.T) {
	version := "v1"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		etag := `"` + version + `"`
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		_, _ = w.Write([]byte("body-" + version))
	}))
	defer server.Close()

	storage := cache.NewMemoryStorage(0)
	withCache, err := WithCache(CacheConfig{Storage: storage})
	require.NoError(t, err)
	fn := Compose(FromTransport(nil), withCache)

	_, err = fn(newRequest(t, http.MethodGet, server.URL))
	require.NoError(t, err)

	version = "v2"
	resp, err := fn(newRequest(t, http.MethodGet, server.URL))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "body-v2", string(body))

	resp, err = fn(newRequest(t, http.MethodGet, server.URL))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "body-v2", string(body))

	entry, err := storage.Get(context.Background(), "GET:"+server.URL)
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, entry.ETag)
}

type recordingStorage struct {
	*cache.MemoryStorage
	ttls []time.Duration
}

func (s *recordingStorage) Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) error {
	s.ttls = append(s.ttls, ttl)
	return s.MemoryStorage.Set(ctx, key, value, ttl)
}

func TestWithCache_TTLHeaderIsConsumed(t *testing.T) {
	var forwarded []string
	base := func(req *http.Request) (*http.Response, error) {
		forwarded = append(forwarded, req.Header.Get(CacheTTLHeader))
		header := http.Header{}
		header.Set("ETag", `"x"`)
		return &http.Response{StatusCode: http.StatusOK, Status: "200 OK", Header: header, Body: io.NopCloser(strings.NewReader("x"))}, nil
	}
	storage := &recordingStorage{MemoryStorage: cache.NewMemoryStorage(0)}
	withCache, err := WithCache(CacheConfig{Storage: storage, TTL: time.Minute})
	require.NoError(t, err)
	fn := Compose(base, withCache)

	req := newRequest(t, http.MethodGet, "https://example.com/a")
	req.Header.Set(CacheTTLHeader, "30")
	_, err = fn(req)
	require.NoError(t, err)
	_, err = fn(newRequest(t, http.MethodGet, "https://example.com/b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"", ""}, forwarded)
	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute}, storage.ttls)
	assert.Equal(t, "30", req.Header.Get(CacheTTLHeader), "the caller's request is not mutated")
}

func TestWithCache_SkipsNonGetAndUntaggedResponses(t *testing.T) {
	base := func(req *http.Request) (*http.Response, error) {
		header := http.Header{}
		if req.URL.Path == "/tagged" {
			header.Set("ETag", `"t"`)
		}
		return &http.Response{StatusCode: http.StatusOK, Header: header, Body: io.NopCloser(strings.NewReader("x"))}, nil
	}
	storage := cache.NewMemoryStorage(0)
	withCache, err := WithCache(CacheConfig{Storage: storage})
	require.NoError(t, err)
	fn := Compose(base, withCache)

	_, err = fn(newRequest(t, http.MethodPost, "https://example.com/tagged"))
	require.NoError(t, err)
	_, err = fn(newRequest(t, http.MethodGet, "https://example.com/plain"))
	require.NoError(t, err)
	assert.Equal(t, 0, storage.Size())

	_, err = fn(newRequest(t, http.MethodGet, "https://example.com/tagged"))
	require.NoError(t, err)
	assert.Equal(t, 1, storage.Size())
}
