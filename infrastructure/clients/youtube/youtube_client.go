package youtube

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog-sync/infrastructure/fetch"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Config represents YouTube API configuration
type Config struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Transport carries every provider request. Nil means http.DefaultTransport.
	Transport fetch.FetchFunc
	// Endpoint overrides the API base URL.
	Endpoint string
}

// NewService creates a read-only YouTube service. OAuth mode is used when a
// refresh token is configured, otherwise requests are keyed with the API key.
func NewService(ctx context.Context, config *Config) (*youtube.Service, error) {
	transport := config.Transport
	if transport == nil {
		transport = fetch.FromTransport(nil)
	}

	opts := []option.ClientOption{}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	if config.RefreshToken != "" && config.ClientID != "" {
		oauth2Config := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       []string{youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		}
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-1 * time.Minute), // Force refresh on first use
		}
		// Token refreshes go through the same transport as API calls.
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, fetch.NewClient(transport))
		opts = append(opts, option.WithHTTPClient(oauth2Config.Client(tokenCtx, token)))
	} else if config.APIKey != "" {
		opts = append(opts, option.WithHTTPClient(fetch.NewClient(fetch.Compose(transport, withAPIKey(config.APIKey)))))
	} else {
		return nil, fmt.Errorf("failed to create YouTube service: neither API key nor refresh token configured")
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// withAPIKey authenticates requests with an API key header. A custom HTTP
// client bypasses option.WithAPIKey, so the key is attached here instead.
func withAPIKey(key string) fetch.Middleware {
	return func(next fetch.FetchFunc) fetch.FetchFunc {
		return func(req *http.Request) (*http.Response, error) {
			req = req.Clone(req.Context())
			req.Header.Set("X-Goog-Api-Key", key)
			return next(req)
		}
	}
}
