package fetch

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	// ErrNoStorage is returned when WithCache is built without storage.
	ErrNoStorage = errors.New("fetch: cache middleware requires a storage")
	// ErrNotFound matches an HTTPError for a 404 response.
	ErrNotFound = errors.New("fetch: not found")
)

// HTTPError is returned once a response has failed and no retries remain.
type HTTPError struct {
	StatusCode int
	StatusText string
	URL        string
	// Attempts is the number of requests made, the first one included.
	Attempts int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %d %s (%s, %d attempts)", e.StatusCode, e.StatusText, e.URL, e.Attempts)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
