package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-sync/domain/model"

	"github.com/lib/pq"
)

type ChannelRepository struct{ db *sql.DB }

func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// ListChannels returns channels that are not soft-deleted.
func (r *ChannelRepository) ListChannels(ctx context.Context) ([]model.Channel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.id, c.slug, c.name, c.deleted_at, c.updated_at
        FROM channels c
        WHERE c.deleted_at IS NULL
        ORDER BY c.created_at, c.id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var out []model.Channel
	for rows.Next() {
		var c model.Channel
		var deletedAt sql.NullTime
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &deletedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		c.DeletedAt = nullTime(deletedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ChannelRepository) UpsertChannels(ctx context.Context, channels []model.Channel) (int64, error) {
	if len(channels) == 0 {
		return 0, nil
	}
	n := len(channels)
	slugs := make([]string, 0, n)
	names := make([]string, 0, n)
	deletedAts := make([]string, 0, n)
	updatedAts := make([]string, 0, n)
	seen := make(map[string]int, n)
	for _, c := range channels {
		if i, ok := seen[c.Slug]; ok {
			names[i] = c.Name
			deletedAts[i] = formatTimePtr(c.DeletedAt)
			updatedAts[i] = formatTime(c.UpdatedAt)
			continue
		}
		seen[c.Slug] = len(slugs)
		slugs = append(slugs, c.Slug)
		names = append(names, c.Name)
		deletedAts = append(deletedAts, formatTimePtr(c.DeletedAt))
		updatedAts = append(updatedAts, formatTime(c.UpdatedAt))
	}

	q := `INSERT INTO channels (slug, name, deleted_at, updated_at)
        SELECT u.slug, u.name, NULLIF(u.deleted_at, '')::timestamptz, u.updated_at::timestamptz
        FROM unnest($1::text[], $2::text[], $3::text[], $4::text[]) AS u(slug, name, deleted_at, updated_at)
        ON CONFLICT (slug) DO UPDATE SET name=EXCLUDED.name, deleted_at=EXCLUDED.deleted_at, updated_at=EXCLUDED.updated_at`
	res, err := r.db.ExecContext(ctx, q, pq.Array(slugs), pq.Array(names), pq.Array(deletedAts), pq.Array(updatedAts))
	if err != nil {
		return 0, fmt.Errorf("upsert channels: %w", err)
	}
	return res.RowsAffected()
}

func (r *ChannelRepository) SoftDeleteChannels(ctx context.Context, ids []string, at time.Time) (int64, error) {
	return softDelete(ctx, r.db, "channels", ids, at)
}
