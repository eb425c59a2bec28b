package repository

import (
	"context"
	"time"

	"catalog-sync/domain/model"
)

// IPopularity reads and writes the sorted-set counters.
type IPopularity interface {
	TopInRange(ctx context.Context, metric model.Metric, start, end time.Time, limit int) ([]model.SortedSetEntry, error)
	UpdateRecommendations(ctx context.Context) (int, error)
	Recommendations(ctx context.Context, limit int) ([]model.SortedSetEntry, error)
	IncrementClick(ctx context.Context, metric model.Metric, id string) error
	IncrementSearch(ctx context.Context, term string) error
	// AllTimeSearches returns every all-time search counter, lowest first.
	AllTimeSearches(ctx context.Context) ([]model.SortedSetEntry, error)
	Analytics(ctx context.Context, day time.Time) (model.AnalyticsSummary, error)
	SaveSnapshot(ctx context.Context, day time.Time, stats model.SummaryStats, analytics model.AnalyticsSummary) error
}

// ISyncMarker records when the video availability check last completed.
type ISyncMarker interface {
	MarkVideoSync(ctx context.Context, at time.Time) error
	LastVideoSync(ctx context.Context) (time.Time, error)
}

// IJobLock keeps a job from starting again before its interval has elapsed.
type IJobLock interface {
	Acquire(ctx context.Context, job string, interval time.Duration) (bool, error)
}
