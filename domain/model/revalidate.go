package model

// RevalidateMessage tells downstream readers which cache tags went stale.
type RevalidateMessage struct {
	Tags []string `json:"tags"`
}

// TagVideos covers every cached view derived from the video catalog.
const TagVideos = "videos"
