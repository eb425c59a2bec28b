package popularity

import (
	"context"
	"fmt"
	"strings"

	"catalog-sync/domain/model"

	"github.com/redis/go-redis/v9"
)

// IncrementClick bumps today's click counter for id.
func (e *Engine) IncrementClick(ctx context.Context, metric model.Metric, id string) error {
	if !metric.IsClick() {
		return fmt.Errorf("not a click metric: %q", metric)
	}
	if id == "" {
		return nil
	}
	key := ClickKey(metric, e.today())
	_, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, key, 1, id)
		pipe.Expire(ctx, key, ClickTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to count click: %w", err)
	}
	return nil
}

// IncrementSearch bumps the daily, weekly and all-time counters for term.
// Blank terms are ignored.
func (e *Engine) IncrementSearch(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	today := e.today()
	daily, weekly := DailySearchKey(today), WeeklySearchKey(today)
	_, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZIncrBy(ctx, daily, 1, term)
		pipe.Expire(ctx, daily, DailySearchTTL)
		pipe.ZIncrBy(ctx, weekly, 1, term)
		pipe.Expire(ctx, weekly, WeekSearchTTL)
		pipe.ZIncrBy(ctx, AllTimeSearchKey, 1, term)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to count search: %w", err)
	}
	return nil
}
