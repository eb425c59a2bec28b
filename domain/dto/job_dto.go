package dto

// Res is the generic error envelope.
type Res struct {
	ResponseCode    string      `json:"responseCode"`
	ResponseMessage interface{} `json:"responseMessage"`
}

// JobReport summarises one job run.
type JobReport struct {
	Job       string `json:"job"`
	All       bool   `json:"all"`
	Processed int    `json:"processed"`
	Upserted  int64  `json:"upserted"`
	// Thumbnails counts thumbnail rows written.
	Thumbnails  int64    `json:"thumbnails"`
	SoftDeleted int      `json:"softDeleted"`
	NotFound    int      `json:"notFound,omitempty"`
	Date        string   `json:"date,omitempty"`
	Complete    bool     `json:"complete"`
	Errors      []string `json:"errors,omitempty"`
	DurationMs  int64    `json:"durationMs"`
}

// AddError records err in the report; nil is ignored.
func (r *JobReport) AddError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// RankingResponse is a ranked list read from the counters.
type RankingResponse struct {
	Metric string         `json:"metric"`
	Start  string         `json:"start,omitempty"`
	End    string         `json:"end,omitempty"`
	Items  []RankingEntry `json:"items"`
}

type RankingEntry struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

type ClickRequest struct {
	Metric string `json:"metric" binding:"required"`
	ID     string `json:"id" binding:"required"`
}

type SearchRequest struct {
	Term string `json:"term" binding:"required"`
}

// HealthResponse reports each dependency as "ok" or an error message.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
