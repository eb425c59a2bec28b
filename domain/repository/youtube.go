package repository

import (
	"context"

	"catalog-sync/domain/model"
)

// IScraper defines the read-only provider operations used by the sync jobs.
// Every listing is a lazy stream; malformed records are dropped, never returned.
type IScraper interface {
	GetChannels(ids []string) *model.Stream[model.ExternalChannel]
	GetPlaylistItems(playlistID string, all bool) *model.Stream[model.ExternalPlaylistItem]
	GetVideos(ids []string) *model.Stream[model.ExternalVideo]
	// CheckVideos reports, for every requested id, whether the provider still resolves it.
	CheckVideos(ids []string) *model.Stream[model.VideoAvailability]

	// Schedule runs fn on the rate-limited dispatch queue. The channel yields fn's result once.
	Schedule(ctx context.Context, fn func(ctx context.Context) error) <-chan error
	// Close waits for scheduled work to drain.
	Close(ctx context.Context) error
}
