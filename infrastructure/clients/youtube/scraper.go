package youtube

import (
	"context"
	"fmt"

	"catalog-sync/domain/model"
	"catalog-sync/infrastructure/logger"
	"catalog-sync/infrastructure/worker"

	"google.golang.org/api/youtube/v3"
)

const (
	// MaxResults is the provider's page and batch limit.
	MaxResults = 50
	// RecentPageSize bounds playlist pages for callers that only want recent uploads.
	RecentPageSize = 20
)

// Scraper reads channels, playlists and videos from the provider.
type Scraper struct {
	service *youtube.Service
	queue   *worker.Queue
}

func NewScraper(service *youtube.Service, queue *worker.Queue) *Scraper {
	return &Scraper{service: service, queue: queue}
}

func (s *Scraper) GetChannels(ids []string) *model.Stream[model.ExternalChannel] {
	return batchStream(ids, func(ctx context.Context, batch []string) ([]model.ExternalChannel, error) {
		resp, err := s.service.Channels.
			List([]string{"contentDetails", "id", "snippet"}).
			Id(batch...).
			MaxResults(MaxResults).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list channels: %w", err)
		}
		channels := make([]model.ExternalChannel, 0, len(resp.Items))
		for _, item := range resp.Items {
			channel, ok := convertToExternalChannel(item)
			if !ok {
				logger.GetLogger().WithField("item", item).Debug("Dropping channel without id or uploads playlist")
				continue
			}
			channels = append(channels, channel)
		}
		return channels, nil
	})
}

// GetPlaylistItems follows the page cursor only when all is set; otherwise a
// single short page of the most recent items is read.
func (s *Scraper) GetPlaylistItems(playlistID string, all bool) *model.Stream[model.ExternalPlaylistItem] {
	pageSize := int64(RecentPageSize)
	if all {
		pageSize = MaxResults
	}
	pageToken := ""
	return model.NewStream(func(ctx context.Context) ([]model.ExternalPlaylistItem, bool, error) {
		call := s.service.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(pageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, false, fmt.Errorf("failed to list playlist items of %s: %w", playlistID, err)
		}
		items := make([]model.ExternalPlaylistItem, 0, len(resp.Items))
		for _, item := range resp.Items {
			playlistItem, ok := convertToExternalPlaylistItem(item)
			if !ok {
				logger.GetLogger().WithField("playlistId", playlistID).Debug("Dropping playlist item without video id")
				continue
			}
			items = append(items, playlistItem)
		}
		pageToken = resp.NextPageToken
		return items, all && pageToken != "", nil
	})
}

func (s *Scraper) GetVideos(ids []string) *model.Stream[model.ExternalVideo] {
	return batchStream(ids, func(ctx context.Context, batch []string) ([]model.ExternalVideo, error) {
		resp, err := s.service.Videos.
			List([]string{"contentDetails", "id", "liveStreamingDetails", "snippet"}).
			Id(batch...).
			MaxResults(MaxResults).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list videos: %w", err)
		}
		videos := make([]model.ExternalVideo, 0, len(resp.Items))
		for _, item := range resp.Items {
			video, ok := convertToExternalVideo(item)
			if !ok {
				logger.GetLogger().WithField("videoId", item.Id).Debug("Dropping video without id or publishedAt")
				continue
			}
			videos = append(videos, video)
		}
		return videos, nil
	})
}

// CheckVideos yields one availability record per requested id, in request order.
func (s *Scraper) CheckVideos(ids []string) *model.Stream[model.VideoAvailability] {
	return batchStream(ids, func(ctx context.Context, batch []string) ([]model.VideoAvailability, error) {
		resp, err := s.service.Videos.
			List([]string{"id"}).
			Id(batch...).
			MaxResults(int64(len(batch))).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to check videos: %w", err)
		}
		found := make(map[string]bool, len(resp.Items))
		for _, item := range resp.Items {
			if item.Id != "" {
				found[item.Id] = true
			}
		}
		out := make([]model.VideoAvailability, 0, len(batch))
		for _, id := range batch {
			out = append(out, model.VideoAvailability{ID: id, Available: found[id]})
		}
		return out, nil
	})
}

// Schedule runs fn on the scraper's dispatch queue.
func (s *Scraper) Schedule(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	return s.queue.Go(ctx, fn)
}

// Close waits for scheduled work to drain. Call it with defer right after construction.
func (s *Scraper) Close(ctx context.Context) error {
	return s.queue.Close(ctx)
}

// batchStream issues one call per MaxResults-sized batch of ids.
func batchStream[T any](ids []string, list func(ctx context.Context, batch []string) ([]T, error)) *model.Stream[T] {
	batches := chunk(ids, MaxResults)
	next := 0
	return model.NewStream(func(ctx context.Context) ([]T, bool, error) {
		if next >= len(batches) {
			return nil, false, nil
		}
		batch := batches[next]
		next++
		items, err := list(ctx, batch)
		if err != nil {
			return nil, false, err
		}
		return items, next < len(batches), nil
	})
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
