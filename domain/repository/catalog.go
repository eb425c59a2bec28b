package repository

import (
	"context"
	"time"

	"catalog-sync/domain/model"
)

// IVideo is the persisted video contract.
type IVideo interface {
	// ListVideos returns live (not soft-deleted) videos, newest first.
	ListVideos(ctx context.Context, limit, offset int) ([]model.Video, error)
	// ListVideosBySlugs returns videos with their thumbnails, soft-deleted ones included.
	ListVideosBySlugs(ctx context.Context, slugs []string) ([]model.Video, error)
	// UpsertVideos writes all rows in one statement keyed by slug.
	UpsertVideos(ctx context.Context, videos []model.Video) (int64, error)
	SoftDeleteVideos(ctx context.Context, ids []string, at time.Time) (int64, error)
}

// IThumbnail is the persisted thumbnail contract.
type IThumbnail interface {
	UpsertThumbnails(ctx context.Context, thumbnails []model.Thumbnail) (int64, error)
	SoftDeleteThumbnails(ctx context.Context, ids []string, at time.Time) (int64, error)
}

// IChannel is the persisted channel contract.
type IChannel interface {
	ListChannels(ctx context.Context) ([]model.Channel, error)
	UpsertChannels(ctx context.Context, channels []model.Channel) (int64, error)
	SoftDeleteChannels(ctx context.Context, ids []string, at time.Time) (int64, error)
}

// ITerm is the canonical term dictionary.
type ITerm interface {
	ListTerms(ctx context.Context) ([]model.Term, error)
	CountTerms(ctx context.Context) (int64, error)
	// UpdatePopularity reports false when no term matches.
	UpdatePopularity(ctx context.Context, term string, popularity int64) (bool, error)
}

// IStats counts catalog rows for the daily snapshot.
type IStats interface {
	// SummaryStats counts rows that existed before end.
	SummaryStats(ctx context.Context, end time.Time) (model.SummaryStats, error)
}
