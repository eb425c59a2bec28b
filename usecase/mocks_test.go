package usecase_test

import (
	"context"
	"time"

	"catalog-sync/domain/model"

	"github.com/stretchr/testify/mock"
)

// streamOf yields items as one page. A non-nil err fails the following page.
func streamOf[T any](items []T, err error) *model.Stream[T] {
	sent := false
	return model.NewStream(func(ctx context.Context) ([]T, bool, error) {
		if sent {
			return nil, false, err
		}
		sent = true
		return items, err != nil, nil
	})
}

type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) GetChannels(ids []string) *model.Stream[model.ExternalChannel] {
	return m.Called(ids).Get(0).(*model.Stream[model.ExternalChannel])
}

func (m *MockScraper) GetPlaylistItems(playlistID string, all bool) *model.Stream[model.ExternalPlaylistItem] {
	return m.Called(playlistID, all).Get(0).(*model.Stream[model.ExternalPlaylistItem])
}

func (m *MockScraper) GetVideos(ids []string) *model.Stream[model.ExternalVideo] {
	return m.Called(ids).Get(0).(*model.Stream[model.ExternalVideo])
}

func (m *MockScraper) CheckVideos(ids []string) *model.Stream[model.VideoAvailability] {
	return m.Called(ids).Get(0).(*model.Stream[model.VideoAvailability])
}

// Schedule runs fn inline.
func (m *MockScraper) Schedule(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	ch := make(chan error, 1)
	ch <- fn(ctx)
	return ch
}

func (m *MockScraper) Close(ctx context.Context) error { return nil }

type MockVideo struct {
	mock.Mock
}

func (m *MockVideo) ListVideos(ctx context.Context, limit, offset int) ([]model.Video, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]model.Video), args.Error(1)
}

func (m *MockVideo) ListVideosBySlugs(ctx context.Context, slugs []string) ([]model.Video, error) {
	args := m.Called(ctx, slugs)
	return args.Get(0).([]model.Video), args.Error(1)
}

func (m *MockVideo) UpsertVideos(ctx context.Context, videos []model.Video) (int64, error) {
	args := m.Called(ctx, videos)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVideo) SoftDeleteVideos(ctx context.Context, ids []string, at time.Time) (int64, error) {
	args := m.Called(ctx, ids, at)
	return args.Get(0).(int64), args.Error(1)
}

type MockThumbnail struct {
	mock.Mock
}

func (m *MockThumbnail) UpsertThumbnails(ctx context.Context, thumbnails []model.Thumbnail) (int64, error) {
	args := m.Called(ctx, thumbnails)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockThumbnail) SoftDeleteThumbnails(ctx context.Context, ids []string, at time.Time) (int64, error) {
	args := m.Called(ctx, ids, at)
	return args.Get(0).(int64), args.Error(1)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ListChannels(ctx context.Context) ([]model.Channel, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Channel), args.Error(1)
}

func (m *MockChannel) UpsertChannels(ctx context.Context, channels []model.Channel) (int64, error) {
	args := m.Called(ctx, channels)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChannel) SoftDeleteChannels(ctx context.Context, ids []string, at time.Time) (int64, error) {
	args := m.Called(ctx, ids, at)
	return args.Get(0).(int64), args.Error(1)
}

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessAll(ctx context.Context, jobs []model.ThumbnailJob) (map[string]model.Thumbnail, error) {
	args := m.Called(ctx, jobs)
	return args.Get(0).(map[string]model.Thumbnail), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, tags []string) error {
	return m.Called(ctx, tags).Error(0)
}

type MockSyncMarker struct {
	mock.Mock
}

func (m *MockSyncMarker) MarkVideoSync(ctx context.Context, at time.Time) error {
	return m.Called(ctx, at).Error(0)
}

func (m *MockSyncMarker) LastVideoSync(ctx context.Context) (time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).(time.Time), args.Error(1)
}

type MockPopularity struct {
	mock.Mock
}

func (m *MockPopularity) TopInRange(ctx context.Context, metric model.Metric, start, end time.Time, limit int) ([]model.SortedSetEntry, error) {
	args := m.Called(ctx, metric, start, end, limit)
	return args.Get(0).([]model.SortedSetEntry), args.Error(1)
}

func (m *MockPopularity) UpdateRecommendations(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPopularity) Recommendations(ctx context.Context, limit int) ([]model.SortedSetEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.SortedSetEntry), args.Error(1)
}

func (m *MockPopularity) IncrementClick(ctx context.Context, metric model.Metric, id string) error {
	return m.Called(ctx, metric, id).Error(0)
}

func (m *MockPopularity) IncrementSearch(ctx context.Context, term string) error {
	return m.Called(ctx, term).Error(0)
}

func (m *MockPopularity) AllTimeSearches(ctx context.Context) ([]model.SortedSetEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.SortedSetEntry), args.Error(1)
}

func (m *MockPopularity) Analytics(ctx context.Context, day time.Time) (model.AnalyticsSummary, error) {
	args := m.Called(ctx, day)
	return args.Get(0).(model.AnalyticsSummary), args.Error(1)
}

func (m *MockPopularity) SaveSnapshot(ctx context.Context, day time.Time, stats model.SummaryStats, analytics model.AnalyticsSummary) error {
	return m.Called(ctx, day, stats, analytics).Error(0)
}

type MockTerm struct {
	mock.Mock
}

func (m *MockTerm) ListTerms(ctx context.Context) ([]model.Term, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Term), args.Error(1)
}

func (m *MockTerm) CountTerms(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTerm) UpdatePopularity(ctx context.Context, term string, popularity int64) (bool, error) {
	args := m.Called(ctx, term, popularity)
	return args.Bool(0), args.Error(1)
}

type MockStats struct {
	mock.Mock
}

func (m *MockStats) SummaryStats(ctx context.Context, end time.Time) (model.SummaryStats, error) {
	args := m.Called(ctx, end)
	return args.Get(0).(model.SummaryStats), args.Error(1)
}
