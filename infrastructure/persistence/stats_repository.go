package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-sync/domain/model"
)

// StatsRepository counts catalog rows in PostgreSQL.
type StatsRepository struct{ db *sql.DB }

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// SummaryStats counts rows created before end. A row deleted at or after end
// still counts as live. TotalTerms is left to the term dictionary.
func (r *StatsRepository) SummaryStats(ctx context.Context, end time.Time) (model.SummaryStats, error) {
	var stats model.SummaryStats
	err := r.db.QueryRowContext(ctx, `SELECT
            (SELECT COUNT(*) FROM videos WHERE created_at < $1 AND (deleted_at IS NULL OR deleted_at >= $1)),
            (SELECT COUNT(*) FROM videos WHERE deleted_at IS NOT NULL AND deleted_at < $1),
            (SELECT COUNT(*) FROM channels WHERE created_at < $1 AND (deleted_at IS NULL OR deleted_at >= $1))`, end).
		Scan(&stats.TotalVideos, &stats.DeletedVideos, &stats.TotalChannels)
	if err != nil {
		return model.SummaryStats{}, fmt.Errorf("count catalog: %w", err)
	}
	return stats, nil
}
