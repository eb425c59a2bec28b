package model

import "time"

type VideoStatus string

const (
	VideoStatusPublished VideoStatus = "PUBLISHED"
	VideoStatusUpcoming  VideoStatus = "UPCOMING"
	VideoStatusLive      VideoStatus = "LIVE"
	VideoStatusEnded     VideoStatus = "ENDED"
)

type VideoKind string

const (
	VideoKindShort    VideoKind = "short"
	VideoKindStandard VideoKind = "standard"
)

// ZeroDuration is stored when the provider omits a duration.
const ZeroDuration = "P0D"

// Video is a persisted catalog video. Slug holds the provider id.
type Video struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	ChannelID   string      `json:"channel_id"`
	Title       string      `json:"title"`
	Duration    string      `json:"duration"`
	PublishedAt time.Time   `json:"published_at"`
	Status      VideoStatus `json:"status"`
	Kind        VideoKind   `json:"video_kind"`
	ThumbnailID *string     `json:"thumbnail_id,omitempty"`
	Thumbnail   *Thumbnail  `json:"thumbnail,omitempty"`
	DeletedAt   *time.Time  `json:"deleted_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// VideoPatch carries only the fields that changed. Nil means unchanged.
type VideoPatch struct {
	Title       *string      `json:"title,omitempty"`
	Duration    *string      `json:"duration,omitempty"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	Status      *VideoStatus `json:"status,omitempty"`
	Kind        *VideoKind   `json:"video_kind,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Apply returns a copy of v with the patch fields written over it.
func (p *VideoPatch) Apply(v Video) Video {
	if p == nil {
		return v
	}
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
	if p.PublishedAt != nil {
		v.PublishedAt = *p.PublishedAt
	}
	if p.Status != nil {
		v.Status = *p.Status
	}
	if p.Kind != nil {
		v.Kind = *p.Kind
	}
	v.UpdatedAt = p.UpdatedAt
	return v
}

// Channel is a persisted catalog channel. Slug holds the provider id.
type Channel struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Thumbnail is the stored asset for a video. The processor returns the full
// row it wants written, so the same type doubles as the thumbnail patch.
type Thumbnail struct {
	ID          string     `json:"id"`
	Path        string     `json:"path"`
	ETag        *string    `json:"etag,omitempty"`
	BlurDataURL string     `json:"blur_data_url"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SoftDeleteResult reports a soft-delete run. Errors holds one entry per failed batch.
type SoftDeleteResult struct {
	VideoIDs     []string `json:"video_ids"`
	ThumbnailIDs []string `json:"thumbnail_ids"`
	Errors       []error  `json:"-"`
}

// ThumbnailJob is one video whose thumbnail should be refreshed.
type ThumbnailJob struct {
	VideoID string
	// Saved is the stored record, nil when the video has none yet.
	Saved  *Thumbnail
	Source *ExternalThumbnail
}
