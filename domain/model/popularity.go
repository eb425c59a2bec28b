package model

// SortedSetEntry is one member of a ranked sorted set.
type SortedSetEntry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// WeightedSource is one input of a weighted union.
type WeightedSource struct {
	Key    string
	Weight float64
}

// Term is a canonical search term with its synonyms. Popularity mirrors the
// all-time search counter.
type Term struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	Term       string   `json:"term"`
	Synonyms   []string `json:"synonyms" gorm:"serializer:json"`
	Popularity int64    `json:"popularity" gorm:"default:0"`
}

func (Term) TableName() string { return "terms" }

// Metric names a family of daily sorted-set counters.
type Metric string

const (
	MetricVideoClicks   Metric = "videos"
	MetricChannelClicks Metric = "channels"
	MetricSearches      Metric = "searches"
)

// IsClick reports whether the metric counts clicks.
func (m Metric) IsClick() bool {
	return m == MetricVideoClicks || m == MetricChannelClicks
}

func (m Metric) Valid() bool {
	return m.IsClick() || m == MetricSearches
}

// SummaryStats counts catalog rows as they stood at the end of one day.
type SummaryStats struct {
	TotalVideos   int64 `json:"totalVideos"`
	DeletedVideos int64 `json:"deletedVideos"`
	TotalChannels int64 `json:"totalChannels"`
	TotalTerms    int64 `json:"totalTerms"`
}

// AnalyticsSummary is one day of search and click traffic.
type AnalyticsSummary struct {
	RecentSearches       int64 `json:"recentSearches"`
	TotalPopularKeywords int64 `json:"totalPopularKeywords"`
	RecentClicks         int64 `json:"recentClicks"`
}
