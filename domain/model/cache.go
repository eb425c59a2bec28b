package model

// CachedResponse is the snapshot of an HTTP response kept for conditional requests.
type CachedResponse struct {
	Body       []byte            `json:"body"`
	ETag       string            `json:"etag,omitempty"`
	Headers    map[string]string `json:"headers"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
}
