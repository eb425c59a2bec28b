package configuration

import (
	"encoding/json"
	"os"
	"strings"
)

// YouTubeConfig represents the provider API credentials.
// API-key mode is used when no refresh token is available.
type YouTubeConfig struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// UsesOAuth reports whether a refresh token and client credentials are present.
func (c *YouTubeConfig) UsesOAuth() bool {
	return c.RefreshToken != "" && c.ClientID != "" && c.ClientSecret != ""
}

// GetYouTubeConfig returns YouTube configuration from JSON config with environment variable fallback
func GetYouTubeConfig() *YouTubeConfig {
	config := &YouTubeConfig{
		APIKey:       getConfigValue(C.YouTube.APIKey, "YOUTUBE_API_KEY", ""),
		ClientID:     getConfigValue(C.YouTube.ClientID, "YOUTUBE_CLIENT_ID", ""),
		ClientSecret: getConfigValue(C.YouTube.ClientSecret, "YOUTUBE_CLIENT_SECRET", ""),
		RefreshToken: getEnv("YOUTUBE_REFRESH_TOKEN", ""),
	}

	// Fallback: token.json written by a previous OAuth consent flow
	if config.RefreshToken == "" {
		if data, err := os.ReadFile("token.json"); err == nil {
			var tokenFile struct {
				RefreshToken string `json:"refresh_token"`
			}
			if jsonErr := json.Unmarshal(data, &tokenFile); jsonErr == nil {
				config.RefreshToken = tokenFile.RefreshToken
			}
		}
	}

	return config
}

// getConfigValue gets value from environment variable first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	// Placeholders such as YOUR_API_KEY count as unset
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
