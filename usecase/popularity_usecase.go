package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-sync/domain/dto"
	"catalog-sync/domain/model"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/logger"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const (
	dateLayout = "2006-01-02"

	// MaxRankingDays is the longest ranking range; click counters expire after it.
	MaxRankingDays = 90
	// TermBatchSize is how many term rows are written between progress logs.
	TermBatchSize = 100
)

// ErrNoTermDictionary is returned by jobs that write to the term dictionary
// when none is configured.
var ErrNoTermDictionary = errors.New("term dictionary not configured")

type IPopularityUsecase interface {
	UpdateRecommendations(ctx context.Context) (*dto.JobReport, error)
	UpdateTermPopularity(ctx context.Context) (*dto.JobReport, error)
	SnapshotStats(ctx context.Context) (*dto.JobReport, error)
	Ranking(ctx context.Context, metric, start, end string, limit int) (*dto.RankingResponse, error)
	Recommendations(ctx context.Context, limit int) (*dto.RankingResponse, error)
	RecordClick(ctx context.Context, req dto.ClickRequest) error
	RecordSearch(ctx context.Context, req dto.SearchRequest) error
}

type PopularityUsecase struct {
	engine repository.IPopularity
	terms  repository.ITerm
	stats  repository.IStats
	loc    *time.Location
	now    func() time.Time
}

type PopularityOption func(*PopularityUsecase)

// WithTerms enables the term popularity job and term counts in snapshots.
func WithTerms(terms repository.ITerm) PopularityOption {
	return func(u *PopularityUsecase) { u.terms = terms }
}

// WithStats enables catalog counts in snapshots.
func WithStats(stats repository.IStats) PopularityOption {
	return func(u *PopularityUsecase) { u.stats = stats }
}

func WithPopularityClock(now func() time.Time) PopularityOption {
	return func(u *PopularityUsecase) { u.now = now }
}

func NewPopularityUsecase(engine repository.IPopularity, loc *time.Location, opts ...PopularityOption) *PopularityUsecase {
	if loc == nil {
		loc = time.UTC
	}
	u := &PopularityUsecase{engine: engine, loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *PopularityUsecase) UpdateRecommendations(ctx context.Context) (*dto.JobReport, error) {
	started := u.now()
	report := &dto.JobReport{Job: "recommendations:update"}
	n, err := u.engine.UpdateRecommendations(ctx)
	report.DurationMs = u.now().Sub(started).Milliseconds()
	if err != nil {
		report.AddError(err)
		return report, err
	}
	report.Processed = n
	report.Upserted = int64(n)
	report.Complete = true
	return report, nil
}

// UpdateTermPopularity copies the all-time search counters onto the matching
// dictionary terms. Members without a term are counted in NotFound; a failed
// write is reported and the rest continue.
func (u *PopularityUsecase) UpdateTermPopularity(ctx context.Context) (*dto.JobReport, error) {
	if u.terms == nil {
		return nil, ErrNoTermDictionary
	}
	started := u.now()
	report := &dto.JobReport{Job: "terms:popularity:update"}
	defer func() { report.DurationMs = u.now().Sub(started).Milliseconds() }()

	entries, err := u.engine.AllTimeSearches(ctx)
	if err != nil {
		report.AddError(err)
		return report, err
	}
	report.Processed = len(entries)

	var errs error
	for i := 0; i < len(entries); i += TermBatchSize {
		if err := ctx.Err(); err != nil {
			report.AddError(err)
			return report, multierr.Append(errs, err)
		}
		batch := entries[i:min(i+TermBatchSize, len(entries))]
		for _, entry := range batch {
			found, err := u.terms.UpdatePopularity(ctx, entry.Member, int64(entry.Score))
			if err != nil {
				logger.GetLogger().WithField("error", err).WithField("term", entry.Member).Error("failed to update term popularity")
				report.AddError(err)
				errs = multierr.Append(errs, err)
				continue
			}
			if found {
				report.Upserted++
			} else {
				report.NotFound++
			}
		}
		logger.GetLogger().
			WithField("done", i+len(batch)).
			WithField("total", len(entries)).
			Debug("term popularity batch written")
	}
	report.Complete = errs == nil
	return report, errs
}

// SnapshotStats stores yesterday's catalog counts and traffic totals.
// Yesterday ends at today's midnight in the configured location.
func (u *PopularityUsecase) SnapshotStats(ctx context.Context) (*dto.JobReport, error) {
	started := u.now()
	today := u.now().In(u.loc)
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, u.loc)
	day := end.AddDate(0, 0, -1)
	report := &dto.JobReport{Job: "stats:snapshot", Date: day.Format(dateLayout)}
	defer func() { report.DurationMs = u.now().Sub(started).Milliseconds() }()

	var (
		stats     model.SummaryStats
		analytics model.AnalyticsSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	if u.stats != nil {
		g.Go(func() error {
			counts, err := u.stats.SummaryStats(gctx, end)
			if err != nil {
				return err
			}
			stats.TotalVideos, stats.DeletedVideos, stats.TotalChannels = counts.TotalVideos, counts.DeletedVideos, counts.TotalChannels
			return nil
		})
	}
	if u.terms != nil {
		g.Go(func() error {
			n, err := u.terms.CountTerms(gctx)
			stats.TotalTerms = n
			return err
		})
	}
	g.Go(func() error {
		var err error
		analytics, err = u.engine.Analytics(gctx, day)
		return err
	})
	if err := g.Wait(); err != nil {
		report.AddError(err)
		return report, err
	}

	if err := u.engine.SaveSnapshot(ctx, day, stats, analytics); err != nil {
		report.AddError(err)
		return report, err
	}
	report.Processed = 1
	report.Complete = true
	logger.GetLogger().
		WithField("date", report.Date).
		WithField("stats", stats).
		WithField("analytics", analytics).
		Info("statistics snapshot saved")
	return report, nil
}

// Ranking reads metric between start and end (YYYY-MM-DD, inclusive). Missing
// dates default to today.
func (u *PopularityUsecase) Ranking(ctx context.Context, metric, start, end string, limit int) (*dto.RankingResponse, error) {
	m := model.Metric(metric)
	if !m.Valid() {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidInput, metric)
	}
	today := u.now().In(u.loc)
	from, err := u.parseDate(start, today)
	if err != nil {
		return nil, err
	}
	to, err := u.parseDate(end, from)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidInput, start, end)
	}
	if !to.Before(from.AddDate(0, 0, MaxRankingDays)) {
		return nil, fmt.Errorf("%w: range %s to %s is longer than %d days", ErrInvalidInput, start, end, MaxRankingDays)
	}
	entries, err := u.engine.TopInRange(ctx, m, from, to, limit)
	if err != nil {
		return nil, err
	}
	return &dto.RankingResponse{
		Metric: metric,
		Start:  from.Format(dateLayout),
		End:    to.Format(dateLayout),
		Items:  toRanking(entries),
	}, nil
}

func (u *PopularityUsecase) Recommendations(ctx context.Context, limit int) (*dto.RankingResponse, error) {
	entries, err := u.engine.Recommendations(ctx, limit)
	if err != nil {
		return nil, err
	}
	return &dto.RankingResponse{Metric: "recommendations", Items: toRanking(entries)}, nil
}

func (u *PopularityUsecase) RecordClick(ctx context.Context, req dto.ClickRequest) error {
	m := model.Metric(req.Metric)
	if !m.IsClick() {
		return fmt.Errorf("%w: not a click metric %q", ErrInvalidInput, req.Metric)
	}
	return u.engine.IncrementClick(ctx, m, req.ID)
}

func (u *PopularityUsecase) RecordSearch(ctx context.Context, req dto.SearchRequest) error {
	return u.engine.IncrementSearch(ctx, req.Term)
}

func (u *PopularityUsecase) parseDate(raw string, fallback time.Time) (time.Time, error) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, u.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidInput, raw)
	}
	return t, nil
}

func toRanking(entries []model.SortedSetEntry) []dto.RankingEntry {
	out := make([]dto.RankingEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.RankingEntry{Member: e.Member, Score: e.Score})
	}
	return out
}
