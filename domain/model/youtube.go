package model

// ExternalChannel is a channel as returned by the provider.
// A channel without an id or uploads playlist is never constructed.
type ExternalChannel struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	UploadsPlaylistID string `json:"uploads_playlist_id"`
}

// ExternalPlaylistItem is one entry of a playlist page.
type ExternalPlaylistItem struct {
	ID          string `json:"id"`
	VideoID     string `json:"video_id"`
	PublishedAt string `json:"published_at,omitempty"`
}

// LiveStreamingDetails mirrors the provider's live broadcast timestamps.
// Empty strings mean the field was absent.
type LiveStreamingDetails struct {
	ScheduledStartTime string `json:"scheduled_start_time,omitempty"`
	ActualStartTime    string `json:"actual_start_time,omitempty"`
	ActualEndTime      string `json:"actual_end_time,omitempty"`
}

// ExternalThumbnail is a single rendition of a video thumbnail.
type ExternalThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExternalThumbnails groups the renditions the processor chooses from.
type ExternalThumbnails struct {
	Maxres   *ExternalThumbnail `json:"maxres,omitempty"`
	Standard *ExternalThumbnail `json:"standard,omitempty"`
	High     *ExternalThumbnail `json:"high,omitempty"`
}

// Best returns the largest available rendition, or nil.
func (t ExternalThumbnails) Best() *ExternalThumbnail {
	for _, candidate := range []*ExternalThumbnail{t.Maxres, t.Standard, t.High} {
		if candidate != nil && candidate.URL != "" {
			return candidate
		}
	}
	return nil
}

// ExternalVideo represents a provider video that passed the required-field contract
// (id and snippet.publishedAt present).
type ExternalVideo struct {
	ID                   string                `json:"id"`
	ChannelID            string                `json:"channel_id"`
	Title                string                `json:"title"`
	PublishedAt          string                `json:"published_at"`
	Duration             string                `json:"duration,omitempty"`
	LiveStreamingDetails *LiveStreamingDetails `json:"live_streaming_details,omitempty"`
	Thumbnails           ExternalThumbnails    `json:"thumbnails"`
}

// VideoAvailability reports whether a requested id still resolves at the provider.
type VideoAvailability struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
}
