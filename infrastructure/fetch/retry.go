package fetch

import (
	"fmt"
	"io"
	"net/http"

	"catalog-sync/infrastructure/logger"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	// Retries is the number of additional attempts after the first one.
	Retries int
	// AbortOn404 fails a 404 immediately instead of retrying it.
	AbortOn404 bool
}

// DefaultRetryConfig returns two retries and aborts on 404.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Retries: 2, AbortOn404: true}
}

// WithRetry retries failed exchanges immediately. A response fails when its
// status is 400 or above, except 304. The failed body is drained before the
// next attempt so the connection can be reused.
func WithRetry(cfg RetryConfig) Middleware {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return func(next FetchFunc) FetchFunc {
		return func(req *http.Request) (*http.Response, error) {
			var lastErr error
			for attempt := 0; attempt <= cfg.Retries; attempt++ {
				if err := req.Context().Err(); err != nil {
					return nil, err
				}
				attemptReq, err := rewind(req, attempt)
				if err != nil {
					return nil, err
				}

				resp, err := next(attemptReq)
				if err != nil {
					lastErr = err
					logger.GetLogger().
						WithField("error", err).
						WithField("attempt", attempt+1).
						Debug("Request failed")
					continue
				}
				if resp.StatusCode < http.StatusBadRequest || resp.StatusCode == http.StatusNotModified {
					return resp, nil
				}

				drain(resp)
				lastErr = &HTTPError{
					StatusCode: resp.StatusCode,
					StatusText: statusText(resp),
					URL:        req.URL.String(),
					Attempts:   attempt + 1,
				}
				if cfg.AbortOn404 && resp.StatusCode == http.StatusNotFound {
					return nil, lastErr
				}
			}
			return nil, lastErr
		}
	}
}

// rewind returns a request whose body can be sent again.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("fetch: cannot retry %s %s: body is not rewindable", req.Method, req.URL)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("fetch: rewind body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
