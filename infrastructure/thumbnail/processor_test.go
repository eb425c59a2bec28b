package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/fetch"
	"catalog-sync/infrastructure/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type fakeStorage struct {
	mu      sync.Mutex
	uploads map[string]repository.UploadOptions
	err     error
}

func (s *fakeStorage) Upload(_ context.Context, path string, _ []byte, opts repository.UploadOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.uploads == nil {
		s.uploads = map[string]repository.UploadOptions{}
	}
	s.uploads[path] = opts
	return nil
}

func (s *fakeStorage) PublicURL(path string) string { return "https://cdn.example.com/" + path }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// origin serves a PNG with ETag "v2" and answers 304 when it is presented.
func origin(t *testing.T, calls *int32) *httptest.Server {
	body := pngBytes(t, 64, 36)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("If-None-Match") == `"v2"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v2"`)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
}

func newProcessor(storage repository.IObjectStorage, now time.Time) *Processor {
	var seq int32
	return NewProcessor(storage, nil, worker.NewQueue(4, 0),
		WithClock(func() time.Time { return now }),
		WithIDGenerator(func() string {
			n := atomic.AddInt32(&seq, 1)
			return "id" + string(rune('0'+n))
		}))
}

func strPtr(s string) *string { return &s }

func TestProcess_GraceWindowSkipsFreshRecord(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newProcessor(&fakeStorage{}, now)
	saved := &model.Thumbnail{ID: "t1", UpdatedAt: now.Add(-time.Minute)}

	patch, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Saved: saved, Source: &model.ExternalThumbnail{URL: server.URL + "/a.png"}})
	require.NoError(t, err)
	assert.Nil(t, patch)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestProcess_GraceWindowUndeletesWithoutNetwork(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deleted := now.Add(-2 * time.Minute)
	p := newProcessor(&fakeStorage{}, now)
	saved := &model.Thumbnail{ID: "t1", Path: "v1/old.png", DeletedAt: &deleted, UpdatedAt: deleted}

	patch, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Saved: saved, Source: &model.ExternalThumbnail{URL: server.URL + "/a.png"}})
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.Nil(t, patch.DeletedAt)
	assert.Equal(t, now, patch.UpdatedAt)
	assert.Equal(t, "v1/old.png", patch.Path)
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.NotNil(t, saved.DeletedAt, "saved record is not mutated")
}

func TestProcess_NotModified(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-time.Hour)
	p := newProcessor(&fakeStorage{}, now)
	source := &model.ExternalThumbnail{URL: server.URL + "/a.png"}

	patch, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Saved: &model.Thumbnail{ID: "t1", ETag: strPtr(`"v2"`), UpdatedAt: old}, Source: source})
	require.NoError(t, err)
	assert.Nil(t, patch)

	patch, err = p.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Saved: &model.Thumbnail{ID: "t1", ETag: strPtr(`"v2"`), DeletedAt: &old, UpdatedAt: old}, Source: source})
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.Nil(t, patch.DeletedAt)
	assert.Equal(t, now, patch.UpdatedAt)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestProcess_DownloadsUploadsAndBlurs(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{}
	p := newProcessor(storage, now)

	patch, err := p.Process(context.Background(), model.ThumbnailJob{
		VideoID: "v1",
		Saved:   &model.Thumbnail{ID: "t1", ETag: strPtr(`"v1"`), UpdatedAt: now.Add(-time.Hour)},
		Source:  &model.ExternalThumbnail{URL: server.URL + "/a.png"},
	})
	require.NoError(t, err)
	require.NotNil(t, patch)

	assert.Equal(t, "t1", patch.ID)
	assert.Equal(t, "v1/id1.png", patch.Path)
	require.NotNil(t, patch.ETag)
	assert.Equal(t, `"v2"`, *patch.ETag)
	assert.Equal(t, 64, patch.Width)
	assert.Equal(t, 36, patch.Height)
	assert.True(t, strings.HasPrefix(patch.BlurDataURL, "data:image/jpeg;base64,"))
	assert.Equal(t, now, patch.UpdatedAt)

	opts, ok := storage.uploads["v1/id1.png"]
	require.True(t, ok)
	assert.Equal(t, "image/png", opts.ContentType)
	assert.Equal(t, CacheControl, opts.CacheControl)
	assert.False(t, opts.Upsert)
}

func TestProcess_NewRecordGetsFreshID(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	p := newProcessor(&fakeStorage{}, time.Now())
	patch, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "v9", Source: &model.ExternalThumbnail{URL: server.URL + "/a.png"}})
	require.NoError(t, err)
	require.NotNil(t, patch)
	assert.Equal(t, "v9/id1.png", patch.Path)
	assert.Equal(t, "id2", patch.ID)
}

func TestProcess_ErrorsPropagate(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	p := newProcessor(&fakeStorage{}, time.Now())
	_, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Source: &model.ExternalThumbnail{URL: server.URL + "/missing.jpg"}})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	failing := newProcessor(&fakeStorage{err: errors.New("bucket unavailable")}, time.Now())
	_, err = failing.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Source: &model.ExternalThumbnail{URL: server.URL + "/a.png"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

func TestProcess_MissingSourceErrors(t *testing.T) {
	storage := &fakeStorage{}
	p := newProcessor(storage, time.Now())

	for _, source := range []*model.ExternalThumbnail{model.ExternalThumbnails{}.Best(), {URL: ""}} {
		patch, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "vid1", Source: source})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoThumbnailSource)
		assert.Contains(t, err.Error(), "vid1")
		assert.Nil(t, patch)
	}
	assert.Empty(t, storage.uploads)
}

func TestProcess_UndecodableBodyUploadsNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("not an image"))
	}))
	defer server.Close()

	storage := &fakeStorage{}
	p := newProcessor(storage, time.Now())
	patch, err := p.Process(context.Background(), model.ThumbnailJob{VideoID: "v1", Source: &model.ExternalThumbnail{URL: server.URL + "/a.jpg"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image")
	assert.Nil(t, patch)
	assert.Empty(t, storage.uploads)
}

func TestProcessAll_SettlesEveryJob(t *testing.T) {
	var calls int32
	server := origin(t, &calls)
	defer server.Close()

	p := NewProcessor(&fakeStorage{}, fetch.FromTransport(nil), worker.NewQueue(2, 0))
	patches, err := p.ProcessAll(context.Background(), []model.ThumbnailJob{
		{VideoID: "ok-1", Source: &model.ExternalThumbnail{URL: server.URL + "/a.png"}},
		{VideoID: "bad", Source: &model.ExternalThumbnail{URL: server.URL + "/missing.jpg"}},
		{VideoID: "ok-2", Source: &model.ExternalThumbnail{URL: server.URL + "/b.png"}},
		{VideoID: "none"},
	})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, ErrNoThumbnailSource)
	assert.Len(t, patches, 2)
	assert.Contains(t, patches, "ok-1")
	assert.Contains(t, patches, "ok-2")
}

func TestBlurDataURL(t *testing.T) {
	img, err := decodeImage(pngBytes(t, 100, 50))
	require.NoError(t, err)
	uri, err := BlurDataURL(img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}
