// Package popularity ranks search terms, videos and channels from Redis sorted-set counters.
package popularity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidRange = errors.New("popularity: start is after end")
	ErrRangeTooLong = fmt.Errorf("popularity: range longer than %d days", MaxRangeDays)
)

type Engine struct {
	client redis.Cmdable
	terms  repository.ITerm
	loc    *time.Location
	now    func() time.Time
}

type Option func(*Engine)

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine. terms may be nil, in which case members are published as is.
func NewEngine(client redis.Cmdable, terms repository.ITerm, opts ...Option) *Engine {
	e := &Engine{client: client, terms: terms, loc: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) today() time.Time {
	return e.now().In(e.loc)
}

// TopInRange returns the top limit members of metric's daily sets between
// start and end inclusive. Multi-day unions are cached for RangeCacheTTL.
func (e *Engine) TopInRange(ctx context.Context, metric model.Metric, start, end time.Time, limit int) ([]model.SortedSetEntry, error) {
	prefix, err := Prefix(metric)
	if err != nil {
		return nil, err
	}
	start, end = StartOfDay(start.In(e.loc)), StartOfDay(end.In(e.loc))
	if start.After(end) {
		return nil, ErrInvalidRange
	}
	if !end.Before(start.AddDate(0, 0, MaxRangeDays)) {
		return nil, ErrRangeTooLong
	}
	if limit <= 0 {
		limit = 10
	}

	days := DaysBetween(start, end)
	if len(days) == 1 {
		return e.top(ctx, dayKey(prefix, start), limit)
	}

	cacheKey := rangeCacheKey(prefix, start, end)
	exists, err := e.client.Exists(ctx, cacheKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check range cache: %w", err)
	}
	if exists == 0 {
		keys := make([]string, 0, len(days))
		weights := make([]float64, 0, len(days))
		for _, d := range days {
			keys = append(keys, dayKey(prefix, d))
			weights = append(weights, 1)
		}
		_, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZUnionStore(ctx, cacheKey, &redis.ZStore{Keys: keys, Weights: weights})
			pipe.Expire(ctx, cacheKey, RangeCacheTTL)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build range union: %w", err)
		}
	}
	return e.top(ctx, cacheKey, limit)
}

func (e *Engine) top(ctx context.Context, key string, limit int) ([]model.SortedSetEntry, error) {
	zs, err := e.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return toEntries(zs), nil
}

// UpdateRecommendations publishes the weighted union of today's, this week's
// and all-time search counters, collapsed onto canonical terms. It returns the
// number of published entries.
func (e *Engine) UpdateRecommendations(ctx context.Context) (int, error) {
	today := e.today()
	candidates := []model.WeightedSource{
		{Key: DailySearchKey(today), Weight: 10},
		{Key: WeeklySearchKey(today), Weight: 5},
		{Key: AllTimeSearchKey, Weight: 1},
	}

	sources, err := e.existing(ctx, candidates)
	if err != nil {
		return 0, err
	}
	if len(sources) == 0 {
		if _, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, RecommendationKey)
			pipe.Del(ctx, CombinedCacheKey)
			return nil
		}); err != nil {
			return 0, fmt.Errorf("failed to clear recommendations: %w", err)
		}
		logger.GetLogger().Info("no search counters, recommendations cleared")
		return 0, nil
	}

	store := &redis.ZStore{}
	for _, s := range sources {
		store.Keys = append(store.Keys, s.Key)
		store.Weights = append(store.Weights, s.Weight)
	}
	if err := e.client.ZUnionStore(ctx, tempUnionKey, store).Err(); err != nil {
		return 0, fmt.Errorf("failed to union search counters: %w", err)
	}
	zs, err := e.client.ZRevRangeWithScores(ctx, tempUnionKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read search union: %w", err)
	}

	dictionary, err := e.dictionary(ctx)
	if err != nil {
		return 0, err
	}
	entries := Canonicalize(toEntries(zs), dictionary)

	members := make([]redis.Z, 0, len(entries))
	for _, entry := range entries {
		members = append(members, redis.Z{Member: entry.Member, Score: entry.Score})
	}
	if _, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, RecommendationKey)
		if len(members) > 0 {
			pipe.ZAdd(ctx, RecommendationKey, members...)
		}
		pipe.Del(ctx, tempUnionKey)
		pipe.Del(ctx, CombinedCacheKey)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to publish recommendations: %w", err)
	}

	logger.GetLogger().WithField("count", len(entries)).Info("recommendations published")
	return len(entries), nil
}

// Recommendations returns the published recommendation set, highest first.
func (e *Engine) Recommendations(ctx context.Context, limit int) ([]model.SortedSetEntry, error) {
	return e.top(ctx, RecommendationKey, limit)
}

func (e *Engine) existing(ctx context.Context, candidates []model.WeightedSource) ([]model.WeightedSource, error) {
	cmds := make([]*redis.IntCmd, len(candidates))
	if _, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, c := range candidates {
			cmds[i] = pipe.Exists(ctx, c.Key)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to check search counters: %w", err)
	}
	var out []model.WeightedSource
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// dictionary maps every lower-cased term and synonym to its canonical term.
func (e *Engine) dictionary(ctx context.Context) (map[string]string, error) {
	if e.terms == nil {
		return nil, nil
	}
	terms, err := e.terms.ListTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load term dictionary: %w", err)
	}
	return BuildDictionary(terms), nil
}

// BuildDictionary maps lower-cased terms and synonyms to the canonical term.
func BuildDictionary(terms []model.Term) map[string]string {
	out := make(map[string]string, len(terms))
	for _, t := range terms {
		out[strings.ToLower(t.Term)] = t.Term
		for _, s := range t.Synonyms {
			out[strings.ToLower(s)] = t.Term
		}
	}
	return out
}

// Canonicalize maps members onto canonical terms keeping the highest score per
// term, then sorts by score descending. Ties keep encounter order.
func Canonicalize(entries []model.SortedSetEntry, dictionary map[string]string) []model.SortedSetEntry {
	index := make(map[string]int, len(entries))
	out := make([]model.SortedSetEntry, 0, len(entries))
	for _, entry := range entries {
		term := entry.Member
		if canonical, ok := dictionary[strings.ToLower(term)]; ok {
			term = canonical
		}
		if i, ok := index[term]; ok {
			if entry.Score > out[i].Score {
				out[i].Score = entry.Score
			}
			continue
		}
		index[term] = len(out)
		out = append(out, model.SortedSetEntry{Member: term, Score: entry.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func toEntries(zs []redis.Z) []model.SortedSetEntry {
	out := make([]model.SortedSetEntry, 0, len(zs))
	for _, z := range zs {
		out = append(out, model.SortedSetEntry{Member: fmt.Sprint(z.Member), Score: z.Score})
	}
	return out
}
