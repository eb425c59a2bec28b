package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lastVideoSyncKey = "last_video_sync"

// SyncMarker records when the video availability check last completed.
type SyncMarker struct {
	client redis.Cmdable
}

func NewSyncMarker(client redis.Cmdable) *SyncMarker {
	return &SyncMarker{client: client}
}

func (m *SyncMarker) MarkVideoSync(ctx context.Context, at time.Time) error {
	if err := m.client.Set(ctx, lastVideoSyncKey, at.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("failed to record video sync: %w", err)
	}
	return nil
}

// LastVideoSync returns the zero time when no sync was recorded.
func (m *SyncMarker) LastVideoSync(ctx context.Context) (time.Time, error) {
	raw, err := m.client.Get(ctx, lastVideoSyncKey).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read video sync: %w", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse video sync %q: %w", raw, err)
	}
	return t, nil
}
