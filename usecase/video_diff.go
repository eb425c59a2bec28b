package usecase

import (
	"time"

	"catalog-sync/domain/model"

	"github.com/sosodev/duration"
)

// shortVideoMaxLength is the longest duration still classified as a short.
const shortVideoMaxLength = 180 * time.Second

// DeriveVideoStatus maps live-streaming details to a catalog status.
func DeriveVideoStatus(video model.ExternalVideo, now time.Time) model.VideoStatus {
	details := video.LiveStreamingDetails
	if details == nil {
		return model.VideoStatusPublished
	}
	if details.ActualStartTime != "" && details.ActualEndTime == "" {
		return model.VideoStatusLive
	}
	if details.ScheduledStartTime != "" {
		if scheduled, err := time.Parse(time.RFC3339, details.ScheduledStartTime); err == nil && scheduled.After(now) {
			return model.VideoStatusUpcoming
		}
	}
	return model.VideoStatusEnded
}

// DerivePublishedAt prefers the actual start, then the scheduled start, then the upload time.
func DerivePublishedAt(video model.ExternalVideo) (time.Time, bool) {
	candidates := []string{}
	if details := video.LiveStreamingDetails; details != nil {
		candidates = append(candidates, details.ActualStartTime, details.ScheduledStartTime)
	}
	candidates = append(candidates, video.PublishedAt)
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, candidate)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	}
	return time.Time{}, false
}

// DeriveDuration returns the ISO-8601 duration, P0D when absent.
func DeriveDuration(video model.ExternalVideo) string {
	if video.Duration == "" {
		return model.ZeroDuration
	}
	return video.Duration
}

// DeriveVideoKind classifies videos up to three minutes long as shorts.
// Zero and unparseable durations are standard.
func DeriveVideoKind(isoDuration string) model.VideoKind {
	parsed, err := duration.Parse(isoDuration)
	if err != nil {
		return model.VideoKindStandard
	}
	length := parsed.ToTimeDuration()
	if length > 0 && length <= shortVideoMaxLength {
		return model.VideoKindShort
	}
	return model.VideoKindStandard
}

// DiffVideo compares a saved video with its fetched counterpart. It returns
// nil when nothing changed, otherwise a patch holding only the changed fields.
func DiffVideo(saved model.Video, fetched model.ExternalVideo, now time.Time) *model.VideoPatch {
	patch := &model.VideoPatch{}
	changed := false

	if status := DeriveVideoStatus(fetched, now); status != saved.Status {
		patch.Status = &status
		changed = true
	}
	videoDuration := DeriveDuration(fetched)
	if videoDuration != saved.Duration {
		patch.Duration = &videoDuration
		changed = true
	}
	if kind := DeriveVideoKind(videoDuration); kind != saved.Kind {
		patch.Kind = &kind
		changed = true
	}
	if publishedAt, ok := DerivePublishedAt(fetched); ok && !publishedAt.Equal(saved.PublishedAt) {
		patch.PublishedAt = &publishedAt
		changed = true
	}
	if fetched.Title != saved.Title {
		title := fetched.Title
		patch.Title = &title
		changed = true
	}

	if !changed {
		return nil
	}
	patch.UpdatedAt = now.UTC()
	return patch
}

// NewVideo builds the row for a video observed for the first time.
func NewVideo(fetched model.ExternalVideo, channelID string, thumbnailID *string, now time.Time) model.Video {
	publishedAt, ok := DerivePublishedAt(fetched)
	if !ok {
		publishedAt = now.UTC()
	}
	videoDuration := DeriveDuration(fetched)
	return model.Video{
		Slug:        fetched.ID,
		ChannelID:   channelID,
		Title:       fetched.Title,
		Duration:    videoDuration,
		PublishedAt: publishedAt,
		Status:      DeriveVideoStatus(fetched, now),
		Kind:        DeriveVideoKind(videoDuration),
		ThumbnailID: thumbnailID,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}
