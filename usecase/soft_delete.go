package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

// CrawlResult is the outcome of an availability crawl. Complete is set only
// when every page was read without error or cancellation.
type CrawlResult struct {
	Resolvable map[string]bool
	Complete   bool
	Err        error
}

// Crawl drains an availability stream.
func Crawl(ctx context.Context, stream *model.Stream[model.VideoAvailability]) CrawlResult {
	result := CrawlResult{Resolvable: map[string]bool{}}
	for stream.Next(ctx) {
		item := stream.Item()
		if item.Available {
			result.Resolvable[item.ID] = true
		}
	}
	result.Err = stream.Err()
	result.Complete = result.Err == nil && ctx.Err() == nil
	return result
}

// MissingVideos returns the rows of saved videos that are no longer resolvable
// and the thumbnail rows that depend on them.
func MissingVideos(saved []model.Video, resolvable map[string]bool) (videoIDs, thumbnailIDs []string) {
	for _, v := range saved {
		if resolvable[v.Slug] || v.DeletedAt != nil {
			continue
		}
		videoIDs = append(videoIDs, v.ID)
		if v.ThumbnailID != nil && *v.ThumbnailID != "" {
			thumbnailIDs = append(thumbnailIDs, *v.ThumbnailID)
		}
	}
	return videoIDs, thumbnailIDs
}

// batchSize bounds the id list of one soft-delete statement.
const batchSize = 500

// SoftDelete marks videoIDs and thumbnailIDs deleted at the same instant. The
// two tables are written concurrently; every failed batch is reported in the
// result without stopping the others.
func SoftDelete(ctx context.Context, videos repository.IVideo, thumbnails repository.IThumbnail, videoIDs, thumbnailIDs []string, at time.Time) model.SoftDeleteResult {
	result := model.SoftDeleteResult{}
	var mu sync.Mutex
	record := func(ids []string, err error, target *[]string) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			result.Errors = append(result.Errors, err)
			return
		}
		*target = append(*target, ids...)
	}

	var g errgroup.Group
	g.Go(func() error {
		for _, batch := range chunk(videoIDs, batchSize) {
			_, err := videos.SoftDeleteVideos(ctx, batch, at)
			if err != nil {
				err = fmt.Errorf("soft delete %d videos: %w", len(batch), err)
			}
			record(batch, err, &result.VideoIDs)
		}
		return nil
	})
	g.Go(func() error {
		for _, batch := range chunk(thumbnailIDs, batchSize) {
			_, err := thumbnails.SoftDeleteThumbnails(ctx, batch, at)
			if err != nil {
				err = fmt.Errorf("soft delete %d thumbnails: %w", len(batch), err)
			}
			record(batch, err, &result.ThumbnailIDs)
		}
		return nil
	})
	_ = g.Wait()

	for _, err := range result.Errors {
		logger.GetLogger().WithField("error", err).Error("soft delete batch failed")
	}
	return result
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
