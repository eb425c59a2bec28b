package repository

import (
	"context"
	"time"

	"catalog-sync/domain/model"
)

// ICacheStorage stores response snapshots for conditional requests.
// A zero ttl means the implementation's default.
type ICacheStorage interface {
	// Get returns nil without error on a miss.
	Get(ctx context.Context, key string) (*model.CachedResponse, error)
	Set(ctx context.Context, key string, value *model.CachedResponse, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
