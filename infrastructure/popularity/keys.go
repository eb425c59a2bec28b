package popularity

import (
	"fmt"
	"time"

	"catalog-sync/domain/model"
)

const (
	dayLayout = "20060102"

	dailySearchPrefix  = "search:popular:daily:"
	weeklySearchPrefix = "search:popular:weekly:"
	AllTimeSearchKey   = "search:popular:all_time"

	RecommendationKey = "queries:auto_recommended"
	CombinedCacheKey  = "queries:combined_cache"
	tempUnionKey      = "search:popular:temp_union"

	summaryStatsPrefix     = "summary:stats:"
	summaryAnalyticsPrefix = "summary:analytics:"

	RangeCacheTTL  = 10 * time.Minute
	ClickTTL       = 90 * 24 * time.Hour
	SnapshotTTL    = 30 * 24 * time.Hour
	DailySearchTTL = 7 * 24 * time.Hour
	WeekSearchTTL  = 35 * 24 * time.Hour
)

// Prefix returns the daily key prefix of metric's counters.
func Prefix(metric model.Metric) (string, error) {
	switch {
	case metric == model.MetricSearches:
		return dailySearchPrefix, nil
	case metric.IsClick():
		return string(metric) + ":clicks:", nil
	}
	return "", fmt.Errorf("unknown metric %q", metric)
}

// MaxRangeDays bounds a ranking range; older counters have expired.
const MaxRangeDays = int(ClickTTL / (24 * time.Hour))

// SummaryStatsKey and SummaryAnalyticsKey hold the daily snapshot for t.
func SummaryStatsKey(t time.Time) string     { return dayKey(summaryStatsPrefix, t) }
func SummaryAnalyticsKey(t time.Time) string { return dayKey(summaryAnalyticsPrefix, t) }

func dayKey(prefix string, t time.Time) string {
	return prefix + t.Format(dayLayout)
}

func DailySearchKey(t time.Time) string { return dayKey(dailySearchPrefix, t) }

// WeeklySearchKey is keyed by the Monday of t's ISO week.
func WeeklySearchKey(t time.Time) string { return dayKey(weeklySearchPrefix, MondayOf(t)) }

// ClickKey is the daily click key; metric must be a click metric.
func ClickKey(metric model.Metric, t time.Time) string { return dayKey(string(metric)+":clicks:", t) }

func rangeCacheKey(prefix string, start, end time.Time) string {
	return prefix + "range:" + start.Format(dayLayout) + "_" + end.Format(dayLayout)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MondayOf returns midnight of the Monday starting t's ISO week.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// DaysBetween lists every day from start to end inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	start, end = StartOfDay(start), StartOfDay(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
