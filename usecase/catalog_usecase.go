package usecase

import (
	"context"
	"fmt"
	"time"

	"catalog-sync/domain/dto"
	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/logger"

	"go.uber.org/multierr"
)

const (
	// recentLimit is how many of the newest videos a non-"all" run looks at.
	recentLimit = 100
	// pageLimit is the page size used to enumerate every saved video.
	pageLimit = 1000
)

// ICatalogUsecase runs the catalog sync jobs.
type ICatalogUsecase interface {
	CheckVideos(ctx context.Context, all bool) (*dto.JobReport, error)
	UpdateVideos(ctx context.Context, all bool) (*dto.JobReport, error)
	UpdateChannels(ctx context.Context) (*dto.JobReport, error)
	ImportVideos(ctx context.Context, all bool) (*dto.JobReport, error)
}

type CatalogUsecase struct {
	scraper    repository.IScraper
	videos     repository.IVideo
	thumbnails repository.IThumbnail
	channels   repository.IChannel
	processor  repository.IThumbnailProcessor
	notifier   repository.ITagNotifier
	marker     repository.ISyncMarker
	now        func() time.Time
}

type CatalogOption func(*CatalogUsecase)

func WithNotifier(notifier repository.ITagNotifier) CatalogOption {
	return func(u *CatalogUsecase) { u.notifier = notifier }
}

func WithSyncMarker(marker repository.ISyncMarker) CatalogOption {
	return func(u *CatalogUsecase) { u.marker = marker }
}

func WithClock(now func() time.Time) CatalogOption {
	return func(u *CatalogUsecase) { u.now = now }
}

func NewCatalogUsecase(
	scraper repository.IScraper,
	videos repository.IVideo,
	thumbnails repository.IThumbnail,
	channels repository.IChannel,
	processor repository.IThumbnailProcessor,
	opts ...CatalogOption,
) *CatalogUsecase {
	u := &CatalogUsecase{
		scraper:    scraper,
		videos:     videos,
		thumbnails: thumbnails,
		channels:   channels,
		processor:  processor,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// listSaved returns the newest videos, or every live video when all is set.
func (u *CatalogUsecase) listSaved(ctx context.Context, all bool) ([]model.Video, error) {
	if !all {
		videos, err := u.videos.ListVideos(ctx, recentLimit, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list videos: %w", err)
		}
		return videos, nil
	}
	var out []model.Video
	for offset := 0; ; offset += pageLimit {
		page, err := u.videos.ListVideos(ctx, pageLimit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list videos at offset %d: %w", offset, err)
		}
		out = append(out, page...)
		if len(page) < pageLimit {
			return out, nil
		}
	}
}

// CheckVideos soft-deletes saved videos the provider no longer resolves.
// Nothing is deleted unless the availability crawl completed.
func (u *CatalogUsecase) CheckVideos(ctx context.Context, all bool) (*dto.JobReport, error) {
	started := u.now()
	report := &dto.JobReport{Job: "videos:check", All: all}
	defer func() { report.DurationMs = u.now().Sub(started).Milliseconds() }()

	saved, err := u.listSaved(ctx, all)
	if err != nil {
		return report, err
	}
	report.Processed = len(saved)

	slugs := make([]string, 0, len(saved))
	for _, v := range saved {
		slugs = append(slugs, v.Slug)
	}
	crawl := Crawl(ctx, u.scraper.CheckVideos(slugs))
	report.Complete = crawl.Complete
	if !crawl.Complete {
		logger.GetLogger().
			WithField("error", crawl.Err).
			WithField("resolved", len(crawl.Resolvable)).
			Warn("availability crawl incomplete, skipping soft delete")
		if crawl.Err != nil {
			return report, fmt.Errorf("availability crawl failed: %w", crawl.Err)
		}
		return report, ctx.Err()
	}

	videoIDs, thumbnailIDs := MissingVideos(saved, crawl.Resolvable)
	var errs error
	if len(videoIDs) > 0 {
		result := SoftDelete(ctx, u.videos, u.thumbnails, videoIDs, thumbnailIDs, u.now().UTC())
		report.SoftDeleted = len(result.VideoIDs)
		for _, err := range result.Errors {
			report.AddError(err)
			errs = multierr.Append(errs, err)
		}
		if len(result.VideoIDs) > 0 {
			u.revalidate(ctx)
		}
	}

	if u.marker != nil {
		if err := u.marker.MarkVideoSync(ctx, u.now()); err != nil {
			report.AddError(err)
			errs = multierr.Append(errs, err)
		}
	}
	return report, errs
}

// UpdateVideos re-scrapes saved videos, writes the ones that changed and
// refreshes their thumbnails.
func (u *CatalogUsecase) UpdateVideos(ctx context.Context, all bool) (*dto.JobReport, error) {
	started := u.now()
	report := &dto.JobReport{Job: "videos:update", All: all}
	defer func() { report.DurationMs = u.now().Sub(started).Milliseconds() }()

	listed, err := u.listSaved(ctx, all)
	if err != nil {
		return report, err
	}
	slugs := make([]string, 0, len(listed))
	for _, v := range listed {
		slugs = append(slugs, v.Slug)
	}
	saved, err := u.videos.ListVideosBySlugs(ctx, slugs)
	if err != nil {
		return report, fmt.Errorf("failed to load videos: %w", err)
	}
	bySlug := make(map[string]model.Video, len(saved))
	for _, v := range saved {
		bySlug[v.Slug] = v
	}

	now := u.now()
	var (
		rows = map[string]model.Video{}
		jobs []model.ThumbnailJob
		errs error
	)
	stream := u.scraper.GetVideos(slugs)
	for stream.Next(ctx) {
		fetched := stream.Item()
		current, ok := bySlug[fetched.ID]
		if !ok {
			continue
		}
		report.Processed++
		if patch := DiffVideo(current, fetched, now); patch != nil {
			rows[current.Slug] = patch.Apply(current)
		}
		jobs = append(jobs, model.ThumbnailJob{VideoID: current.Slug, Saved: current.Thumbnail, Source: fetched.Thumbnails.Best()})
	}
	report.Complete = stream.Err() == nil && ctx.Err() == nil
	if err := stream.Err(); err != nil {
		report.AddError(err)
		errs = multierr.Append(errs, fmt.Errorf("video crawl failed: %w", err))
	}

	written, err := u.refreshThumbnails(ctx, jobs, func(slug string) (model.Video, bool) {
		if row, ok := rows[slug]; ok {
			return row, true
		}
		v, ok := bySlug[slug]
		return v, ok
	}, func(row model.Video) { rows[row.Slug] = row }, now)
	report.Thumbnails = written
	if err != nil {
		for _, e := range multierr.Errors(err) {
			report.AddError(e)
		}
		errs = multierr.Append(errs, err)
	}

	if len(rows) > 0 {
		upserted, err := u.videos.UpsertVideos(ctx, values(rows))
		report.Upserted = upserted
		if err != nil {
			report.AddError(err)
			return report, multierr.Append(errs, err)
		}
	}
	if report.Upserted > 0 || written > 0 {
		u.revalidate(ctx)
	}
	return report, errs
}

// refreshThumbnails processes jobs, writes the thumbnail rows and points
// videos without that thumbnail at it. Processing failures are returned
// together; the successful rows are still written.
func (u *CatalogUsecase) refreshThumbnails(
	ctx context.Context,
	jobs []model.ThumbnailJob,
	lookup func(slug string) (model.Video, bool),
	stage func(row model.Video),
	now time.Time,
) (int64, error) {
	if u.processor == nil || len(jobs) == 0 {
		return 0, nil
	}
	patches, errs := u.processor.ProcessAll(ctx, jobs)
	if len(patches) == 0 {
		return 0, errs
	}

	thumbnails := make([]model.Thumbnail, 0, len(patches))
	for _, t := range patches {
		thumbnails = append(thumbnails, t)
	}
	written, err := u.thumbnails.UpsertThumbnails(ctx, thumbnails)
	if err != nil {
		return 0, multierr.Append(errs, fmt.Errorf("failed to upsert thumbnails: %w", err))
	}

	for slug, t := range patches {
		row, ok := lookup(slug)
		if !ok {
			continue
		}
		if row.ThumbnailID != nil && *row.ThumbnailID == t.ID {
			continue
		}
		id := t.ID
		row.ThumbnailID = &id
		row.UpdatedAt = now.UTC()
		stage(row)
	}
	return written, errs
}

// UpdateChannels renames channels whose provider title changed and
// soft-deletes channels the provider no longer resolves.
func (u *CatalogUsecase) UpdateChannels(ctx context.Context) (*dto.JobReport, error) {
	started := u.now()
	report := &dto.JobReport{Job: "channels:update"}
	defer func() { report.DurationMs = u.now().Sub(started).Milliseconds() }()

	saved, err := u.channels.ListChannels(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list channels: %w", err)
	}
	report.Processed = len(saved)

	resolved, complete, crawlErr := u.resolveChannels(ctx, saved)
	report.Complete = complete

	now := u.now().UTC()
	var (
		renamed []model.Channel
		missing []string
		errs    error
	)
	for _, c := range saved {
		external, ok := resolved[c.Slug]
		if !ok {
			missing = append(missing, c.ID)
			continue
		}
		if external.Title != "" && external.Title != c.Name {
			c.Name = external.Title
			c.UpdatedAt = now
			renamed = append(renamed, c)
		}
	}

	if len(renamed) > 0 {
		n, err := u.channels.UpsertChannels(ctx, renamed)
		report.Upserted = n
		if err != nil {
			report.AddError(err)
			errs = multierr.Append(errs, err)
		}
	}

	if crawlErr != nil {
		report.AddError(crawlErr)
		return report, multierr.Append(errs, fmt.Errorf("channel crawl failed: %w", crawlErr))
	}
	if complete && len(missing) > 0 {
		n, err := u.channels.SoftDeleteChannels(ctx, missing, now)
		report.SoftDeleted = int(n)
		if err != nil {
			report.AddError(err)
			errs = multierr.Append(errs, err)
		}
	}
	if report.Upserted > 0 || report.SoftDeleted > 0 {
		u.revalidate(ctx)
	}
	return report, errs
}

func (u *CatalogUsecase) resolveChannels(ctx context.Context, saved []model.Channel) (map[string]model.ExternalChannel, bool, error) {
	slugs := make([]string, 0, len(saved))
	for _, c := range saved {
		slugs = append(slugs, c.Slug)
	}
	resolved := make(map[string]model.ExternalChannel, len(slugs))
	stream := u.scraper.GetChannels(slugs)
	for stream.Next(ctx) {
		c := stream.Item()
		resolved[c.ID] = c
	}
	err := stream.Err()
	return resolved, err == nil && ctx.Err() == nil, err
}

// ImportVideos walks every channel's uploads playlist and inserts videos
// that are not saved yet. Channels run on the scraper's dispatch queue and
// each channel's failure is reported on its own.
func (u *CatalogUsecase) ImportVideos(ctx context.Context, all bool) (*dto.JobReport, error) {
	started := u.now()
	report := &dto.JobReport{Job: "videos:import", All: all}
	defer func() { report.DurationMs = u.now().Sub(started).Milliseconds() }()

	saved, err := u.channels.ListChannels(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list channels: %w", err)
	}
	resolved, _, crawlErr := u.resolveChannels(ctx, saved)
	var errs error
	if crawlErr != nil {
		report.AddError(crawlErr)
		errs = multierr.Append(errs, fmt.Errorf("channel crawl failed: %w", crawlErr))
	}

	type outcome struct {
		imported   int64
		thumbnails int64
	}
	outcomes := make([]outcome, len(saved))
	pending := make([]<-chan error, 0, len(saved))
	channels := make([]model.Channel, 0, len(saved))
	for _, c := range saved {
		external, ok := resolved[c.Slug]
		if !ok {
			continue
		}
		i, c := len(channels), c
		channels = append(channels, c)
		pending = append(pending, u.scraper.Schedule(ctx, func(ctx context.Context) error {
			imported, thumbnails, err := u.importChannel(ctx, c, external, all)
			outcomes[i] = outcome{imported: imported, thumbnails: thumbnails}
			return err
		}))
	}

	for i, ch := range pending {
		report.Processed++
		if err := <-ch; err != nil {
			err = fmt.Errorf("channel %s: %w", channels[i].Slug, err)
			logger.GetLogger().WithField("error", err).Error("failed to import channel")
			report.AddError(err)
			errs = multierr.Append(errs, err)
		}
		report.Upserted += outcomes[i].imported
		report.Thumbnails += outcomes[i].thumbnails
	}
	report.Complete = errs == nil

	if report.Upserted > 0 {
		u.revalidate(ctx)
	}
	return report, errs
}

func (u *CatalogUsecase) importChannel(ctx context.Context, channel model.Channel, external model.ExternalChannel, all bool) (int64, int64, error) {
	items, err := model.Collect(ctx, u.scraper.GetPlaylistItems(external.UploadsPlaylistID, all))
	if err != nil {
		return 0, 0, err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.VideoID)
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	existing, err := u.videos.ListVideosBySlugs(ctx, ids)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load videos: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, v := range existing {
		known[v.Slug] = true
	}
	var unseen []string
	for _, id := range ids {
		if !known[id] {
			unseen = append(unseen, id)
			known[id] = true
		}
	}
	if len(unseen) == 0 {
		return 0, 0, nil
	}

	fetched, err := model.Collect(ctx, u.scraper.GetVideos(unseen))
	if err != nil {
		return 0, 0, err
	}

	now := u.now()
	rows := make(map[string]model.Video, len(fetched))
	jobs := make([]model.ThumbnailJob, 0, len(fetched))
	for _, f := range fetched {
		rows[f.ID] = NewVideo(f, channel.ID, nil, now)
		jobs = append(jobs, model.ThumbnailJob{VideoID: f.ID, Source: f.Thumbnails.Best()})
	}

	thumbnails, thumbErr := u.refreshThumbnails(ctx, jobs, func(slug string) (model.Video, bool) {
		row, ok := rows[slug]
		return row, ok
	}, func(row model.Video) { rows[row.Slug] = row }, now)
	imported, err := u.videos.UpsertVideos(ctx, values(rows))
	if err != nil {
		return 0, thumbnails, multierr.Append(thumbErr, err)
	}
	return imported, thumbnails, thumbErr
}

// revalidate announces that catalog views are stale. Failures are logged only.
func (u *CatalogUsecase) revalidate(ctx context.Context) {
	if u.notifier == nil {
		return
	}
	if err := u.notifier.Publish(ctx, []string{model.TagVideos}); err != nil {
		logger.GetLogger().WithField("error", err).Error("failed to publish revalidation")
	}
}

func values(rows map[string]model.Video) []model.Video {
	out := make([]model.Video, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out
}
