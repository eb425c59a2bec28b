// Package thumbnail refreshes stored video thumbnails from the provider.
package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/fetch"
	"catalog-sync/infrastructure/logger"
	"catalog-sync/infrastructure/worker"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	// GraceWindow is how long a freshly touched record is left alone.
	GraceWindow = 5 * time.Minute
	// CacheControl is sent with every upload; objects are immutable.
	CacheControl = "max-age=31536000"

	defaultContentType = "image/jpeg"
)

// ErrNoThumbnailSource is returned for a video the provider lists without any
// thumbnail URL.
var ErrNoThumbnailSource = errors.New("thumbnail URL does not exist")

type Processor struct {
	storage    repository.IObjectStorage
	httpClient *http.Client
	queue      *worker.Queue
	now        func() time.Time
	newID      func() string
}

type Option func(*Processor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithIDGenerator replaces the random id used for rows and object paths.
func WithIDGenerator(newID func() string) Option {
	return func(p *Processor) { p.newID = newID }
}

// NewProcessor builds a processor. transport performs the image downloads and
// queue bounds ProcessAll.
func NewProcessor(storage repository.IObjectStorage, transport fetch.FetchFunc, queue *worker.Queue, opts ...Option) *Processor {
	if transport == nil {
		transport = fetch.Compose(fetch.FromTransport(nil), fetch.WithRetry(fetch.DefaultRetryConfig()))
	}
	if queue == nil {
		queue = worker.NewQueue(12, 250*time.Millisecond)
	}
	p := &Processor{
		storage:    storage,
		httpClient: fetch.NewClient(transport),
		queue:      queue,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process returns the row to write for job, or nil when nothing changed.
// Download and upload errors are returned as is.
func (p *Processor) Process(ctx context.Context, job model.ThumbnailJob) (*model.Thumbnail, error) {
	now := p.now()
	saved := job.Saved

	if saved != nil && now.Sub(saved.UpdatedAt) < GraceWindow {
		if saved.DeletedAt == nil {
			return nil, nil
		}
		return restore(*saved, now), nil
	}
	if job.Source == nil || job.Source.URL == "" {
		return nil, fmt.Errorf("video %s: %w", job.VideoID, ErrNoThumbnailSource)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.Source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build thumbnail request: %w", err)
	}
	if saved != nil && saved.ETag != nil && *saved.ETag != "" {
		req.Header.Set("If-None-Match", *saved.ETag)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thumbnail for %s: %w", job.VideoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		if saved == nil || (saved.DeletedAt == nil && saved.ETag != nil) {
			return nil, nil
		}
		restored := restore(*saved, now)
		if etag := resp.Header.Get("ETag"); etag != "" {
			restored.ETag = &etag
		}
		return restored, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &fetch.HTTPError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			URL:        job.Source.URL,
			Attempts:   1,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read thumbnail for %s: %w", job.VideoID, err)
	}

	// Nothing is uploaded for a body that is not an image.
	img, err := decodeImage(body)
	if err != nil {
		return nil, err
	}
	blur, err := BlurDataURL(img)
	if err != nil {
		return nil, err
	}

	contentType := contentTypeOf(resp.Header.Get("Content-Type"))
	path := fmt.Sprintf("%s/%s%s", job.VideoID, p.newID(), extensionFor(contentType, body))
	if err := p.storage.Upload(ctx, path, body, repository.UploadOptions{
		ContentType:  contentType,
		CacheControl: CacheControl,
		Upsert:       false,
	}); err != nil {
		return nil, fmt.Errorf("failed to upload thumbnail for %s: %w", job.VideoID, err)
	}

	id := p.newID()
	if saved != nil {
		id = saved.ID
	}
	var etag *string
	if v := resp.Header.Get("ETag"); v != "" {
		etag = &v
	}
	return &model.Thumbnail{
		ID:          id,
		Path:        path,
		ETag:        etag,
		BlurDataURL: blur,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		UpdatedAt:   now,
	}, nil
}

// ProcessAll runs every job on the queue and waits for all of them. Results
// are keyed by video id; each failed job contributes one error.
func (p *Processor) ProcessAll(ctx context.Context, jobs []model.ThumbnailJob) (map[string]model.Thumbnail, error) {
	type outcome struct {
		videoID string
		patch   *model.Thumbnail
	}
	outcomes := make([]outcome, len(jobs))
	pending := make([]<-chan error, len(jobs))
	for i, job := range jobs {
		i, job := i, job
		pending[i] = p.queue.Go(ctx, func(ctx context.Context) error {
			patch, err := p.Process(ctx, job)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{videoID: job.VideoID, patch: patch}
			return nil
		})
	}

	var errs error
	for i, ch := range pending {
		if err := <-ch; err != nil {
			logger.GetLogger().
				WithField("error", err).
				WithField("videoId", jobs[i].VideoID).
				Error("failed to process thumbnail")
			errs = multierr.Append(errs, fmt.Errorf("thumbnail %s: %w", jobs[i].VideoID, err))
		}
	}

	patches := make(map[string]model.Thumbnail)
	for _, o := range outcomes {
		if o.patch != nil {
			patches[o.videoID] = *o.patch
		}
	}
	return patches, errs
}

func restore(t model.Thumbnail, now time.Time) *model.Thumbnail {
	t.DeletedAt = nil
	t.UpdatedAt = now
	return &t
}

func contentTypeOf(header string) string {
	if header == "" {
		return defaultContentType
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil || mediaType == "" {
		return defaultContentType
	}
	return mediaType
}

func extensionFor(contentType string, body []byte) string {
	if m := mimetype.Lookup(contentType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return mimetype.Detect(body).Extension()
}

// IsNotFound reports whether err came from a 404 at the image origin.
func IsNotFound(err error) bool {
	return errors.Is(err, fetch.ErrNotFound)
}
