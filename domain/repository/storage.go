package repository

import (
	"context"

	"catalog-sync/domain/model"
)

type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// IObjectStorage is the object storage bucket holding thumbnails.
type IObjectStorage interface {
	Upload(ctx context.Context, path string, body []byte, opts UploadOptions) error
	PublicURL(path string) string
}

// ITagNotifier announces that cached views for the given tags are stale.
type ITagNotifier interface {
	Publish(ctx context.Context, tags []string) error
}

// IThumbnailProcessor refreshes thumbnails. The result maps video id to the
// row to write; videos needing no write are absent.
type IThumbnailProcessor interface {
	ProcessAll(ctx context.Context, jobs []model.ThumbnailJob) (map[string]model.Thumbnail, error)
}
