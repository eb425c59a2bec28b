package popularity

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"catalog-sync/domain/model"

	"github.com/redis/go-redis/v9"
)

// AllTimeSearches reads the whole all-time search set with scores floored.
func (e *Engine) AllTimeSearches(ctx context.Context) ([]model.SortedSetEntry, error) {
	zs, err := e.client.ZRangeWithScores(ctx, AllTimeSearchKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", AllTimeSearchKey, err)
	}
	entries := toEntries(zs)
	for i := range entries {
		entries[i].Score = math.Floor(entries[i].Score)
	}
	return entries, nil
}

// Analytics totals day's searches and video clicks.
func (e *Engine) Analytics(ctx context.Context, day time.Time) (model.AnalyticsSummary, error) {
	day = day.In(e.loc)
	var searches, clicks *redis.ZSliceCmd
	var keywords *redis.IntCmd
	if _, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		searches = pipe.ZRangeWithScores(ctx, DailySearchKey(day), 0, -1)
		keywords = pipe.ZCard(ctx, AllTimeSearchKey)
		clicks = pipe.ZRangeWithScores(ctx, ClickKey(model.MetricVideoClicks, day), 0, -1)
		return nil
	}); err != nil {
		return model.AnalyticsSummary{}, fmt.Errorf("failed to read analytics: %w", err)
	}
	return model.AnalyticsSummary{
		RecentSearches:       sumScores(searches.Val()),
		TotalPopularKeywords: keywords.Val(),
		RecentClicks:         sumScores(clicks.Val()),
	}, nil
}

// SaveSnapshot stores day's summary and analytics for SnapshotTTL.
func (e *Engine) SaveSnapshot(ctx context.Context, day time.Time, stats model.SummaryStats, analytics model.AnalyticsSummary) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode summary stats: %w", err)
	}
	analyticsJSON, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	day = day.In(e.loc)
	if _, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SummaryStatsKey(day), statsJSON, SnapshotTTL)
		pipe.Set(ctx, SummaryAnalyticsKey(day), analyticsJSON, SnapshotTTL)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func sumScores(zs []redis.Z) int64 {
	var total int64
	for _, z := range zs {
		total += int64(z.Score)
	}
	return total
}
