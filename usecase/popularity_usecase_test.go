package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"catalog-sync/domain/dto"
	"catalog-sync/domain/model"
	"catalog-sync/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPopularityUsecase_Ranking(t *testing.T) {
	engine := new(MockPopularity)
	u := usecase.NewPopularityUsecase(engine, time.UTC)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	engine.On("TopInRange", mock.Anything, model.MetricSearches, start, end, 5).
		Return([]model.SortedSetEntry{{Member: "foo", Score: 3}}, nil)

	res, err := u.Ranking(context.Background(), "searches", "2026-03-01", "2026-03-07", 5)
	require.NoError(t, err)
	assert.Equal(t, &dto.RankingResponse{
		Metric: "searches",
		Start:  "2026-03-01",
		End:    "2026-03-07",
		Items:  []dto.RankingEntry{{Member: "foo", Score: 3}},
	}, res)
}

func TestPopularityUsecase_RankingRejectsBadInput(t *testing.T) {
	u := usecase.NewPopularityUsecase(new(MockPopularity), time.UTC)
	ctx := context.Background()

	_, err := u.Ranking(ctx, "talents", "", "", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	_, err = u.Ranking(ctx, "videos", "03/01/2026", "", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	_, err = u.Ranking(ctx, "videos", "2026-03-07", "2026-03-01", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	_, err = u.Ranking(ctx, "videos", "1900-01-01", "2026-03-04", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
	_, err = u.Ranking(ctx, "searches", "2025-12-04", "2026-03-04", 5)
	assert.ErrorIs(t, err, usecase.ErrInvalidInput)
}

func TestPopularityUsecase_RankingAcceptsFullRetention(t *testing.T) {
	engine := new(MockPopularity)
	u := usecase.NewPopularityUsecase(engine, time.UTC)

	start := time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	engine.On("TopInRange", mock.Anything, model.MetricVideoClicks, start, end, 10).
		Return([]model.SortedSetEntry{}, nil)

	_, err := u.Ranking(context.Background(), "videos", "2025-12-05", "2026-03-04", 10)
	require.NoError(t, err)
	engine.AssertExpectations(t)
}

func TestPopularityUsecase_UpdateTermPopularity(t *testing.T) {
	engine := new(MockPopularity)
	terms := new(MockTerm)
	u := usecase.NewPopularityUsecase(engine, time.UTC, usecase.WithTerms(terms))

	entries := make([]model.SortedSetEntry, 0, usecase.TermBatchSize+3)
	for i := 0; i < usecase.TermBatchSize; i++ {
		entries = append(entries, model.SortedSetEntry{Member: fmt.Sprintf("term-%d", i), Score: float64(i)})
	}
	entries = append(entries,
		model.SortedSetEntry{Member: "unknown", Score: 4},
		model.SortedSetEntry{Member: "broken", Score: 2},
		model.SortedSetEntry{Member: "last", Score: 7},
	)
	engine.On("AllTimeSearches", mock.Anything).Return(entries, nil)
	terms.On("UpdatePopularity", mock.Anything, mock.MatchedBy(func(term string) bool {
		return strings.HasPrefix(term, "term-") || term == "last"
	}), mock.AnythingOfType("int64")).Return(true, nil)
	terms.On("UpdatePopularity", mock.Anything, "unknown", int64(4)).Return(false, nil)
	terms.On("UpdatePopularity", mock.Anything, "broken", int64(2)).Return(false, errors.New("lock wait timeout"))

	report, err := u.UpdateTermPopularity(context.Background())
	require.Error(t, err)
	assert.Equal(t, "terms:popularity:update", report.Job)
	assert.Equal(t, usecase.TermBatchSize+3, report.Processed)
	assert.EqualValues(t, usecase.TermBatchSize+1, report.Upserted)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, []string{"lock wait timeout"}, report.Errors)
	assert.False(t, report.Complete)
	terms.AssertNumberOfCalls(t, "UpdatePopularity", usecase.TermBatchSize+3)
	terms.AssertCalled(t, "UpdatePopularity", mock.Anything, "last", int64(7))
}

func TestPopularityUsecase_UpdateTermPopularityNeedsDictionary(t *testing.T) {
	u := usecase.NewPopularityUsecase(new(MockPopularity), time.UTC)
	report, err := u.UpdateTermPopularity(context.Background())
	assert.ErrorIs(t, err, usecase.ErrNoTermDictionary)
	assert.Nil(t, report)
}

func TestPopularityUsecase_SnapshotStats(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2026, 3, 4, 0, 10, 0, 0, tokyo)
	engine := new(MockPopularity)
	terms := new(MockTerm)
	stats := new(MockStats)
	u := usecase.NewPopularityUsecase(engine, tokyo,
		usecase.WithTerms(terms),
		usecase.WithStats(stats),
		usecase.WithPopularityClock(func() time.Time { return now }))

	end := time.Date(2026, 3, 4, 0, 0, 0, 0, tokyo)
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, tokyo)
	analytics := model.AnalyticsSummary{RecentSearches: 5, TotalPopularKeywords: 3, RecentClicks: 9}
	stats.On("SummaryStats", mock.Anything, end).
		Return(model.SummaryStats{TotalVideos: 10, DeletedVideos: 1, TotalChannels: 2}, nil)
	terms.On("CountTerms", mock.Anything).Return(int64(6), nil)
	engine.On("Analytics", mock.Anything, day).Return(analytics, nil)
	engine.On("SaveSnapshot", mock.Anything, day,
		model.SummaryStats{TotalVideos: 10, DeletedVideos: 1, TotalChannels: 2, TotalTerms: 6}, analytics).Return(nil)

	report, err := u.SnapshotStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stats:snapshot", report.Job)
	assert.Equal(t, "2026-03-03", report.Date)
	assert.True(t, report.Complete)
	engine.AssertExpectations(t)
	stats.AssertExpectations(t)
	terms.AssertExpectations(t)
}

func TestPopularityUsecase_SnapshotStatsSavesNothingOnReadFailure(t *testing.T) {
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	engine := new(MockPopularity)
	stats := new(MockStats)
	u := usecase.NewPopularityUsecase(engine, time.UTC,
		usecase.WithStats(stats),
		usecase.WithPopularityClock(func() time.Time { return now }))

	stats.On("SummaryStats", mock.Anything, mock.Anything).Return(model.SummaryStats{}, errors.New("db down"))
	engine.On("Analytics", mock.Anything, mock.Anything).Return(model.AnalyticsSummary{}, nil)

	report, err := u.SnapshotStats(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"db down"}, report.Errors)
	engine.AssertNotCalled(t, "SaveSnapshot", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPopularityUsecase_Counters(t *testing.T) {
	engine := new(MockPopularity)
	u := usecase.NewPopularityUsecase(engine, time.UTC)
	ctx := context.Background()

	engine.On("IncrementClick", mock.Anything, model.MetricVideoClicks, "v1").Return(nil)
	engine.On("IncrementSearch", mock.Anything, "hello").Return(nil)

	require.NoError(t, u.RecordClick(ctx, dto.ClickRequest{Metric: "videos", ID: "v1"}))
	require.NoError(t, u.RecordSearch(ctx, dto.SearchRequest{Term: "hello"}))
	assert.ErrorIs(t, u.RecordClick(ctx, dto.ClickRequest{Metric: "searches", ID: "x"}), usecase.ErrInvalidInput)
	engine.AssertExpectations(t)
}

func TestPopularityUsecase_UpdateRecommendations(t *testing.T) {
	engine := new(MockPopularity)
	u := usecase.NewPopularityUsecase(engine, time.UTC)

	engine.On("UpdateRecommendations", mock.Anything).Return(4, nil).Once()
	report, err := u.UpdateRecommendations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, report.Processed)
	assert.True(t, report.Complete)

	engine.On("UpdateRecommendations", mock.Anything).Return(0, errors.New("redis down")).Once()
	report, err = u.UpdateRecommendations(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"redis down"}, report.Errors)
}
