package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-sync/domain/model"

	"github.com/lib/pq"
)

const videoColumns = `v.id, v.slug, v.channel_id, v.title, v.duration, v.published_at, v.status, v.video_kind, v.thumbnail_id, v.deleted_at, v.created_at, v.updated_at`

// VideoRepository persists catalog videos in PostgreSQL.
type VideoRepository struct{ db *sql.DB }

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) ListVideos(ctx context.Context, limit, offset int) ([]model.Video, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+`
        FROM videos v
        WHERE v.deleted_at IS NULL
        ORDER BY v.published_at DESC, v.id
        LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	out := make([]model.Video, 0, limit)
	for rows.Next() {
		var v model.Video
		var thumbnailID sql.NullString
		var deletedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.Slug, &v.ChannelID, &v.Title, &v.Duration, &v.PublishedAt,
			&v.Status, &v.Kind, &thumbnailID, &deletedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.ThumbnailID = nullString(thumbnailID)
		v.DeletedAt = nullTime(deletedAt)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VideoRepository) ListVideosBySlugs(ctx context.Context, slugs []string) ([]model.Video, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+videoColumns+`,
            t.id, t.path, t.etag, t.blur_data_url, t.width, t.height, t.deleted_at, t.updated_at
        FROM videos v
        LEFT JOIN thumbnails t ON t.id = v.thumbnail_id
        WHERE v.slug = ANY($1)`, pq.Array(slugs))
	if err != nil {
		return nil, fmt.Errorf("list videos by slug: %w", err)
	}
	defer rows.Close()

	var out []model.Video
	for rows.Next() {
		var v model.Video
		var thumbnailID sql.NullString
		var deletedAt sql.NullTime
		var t struct {
			id, path, etag, blur sql.NullString
			width, height        sql.NullInt64
			deletedAt, updatedAt sql.NullTime
		}
		if err := rows.Scan(&v.ID, &v.Slug, &v.ChannelID, &v.Title, &v.Duration, &v.PublishedAt,
			&v.Status, &v.Kind, &thumbnailID, &deletedAt, &v.CreatedAt, &v.UpdatedAt,
			&t.id, &t.path, &t.etag, &t.blur, &t.width, &t.height, &t.deletedAt, &t.updatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.ThumbnailID = nullString(thumbnailID)
		v.DeletedAt = nullTime(deletedAt)
		if t.id.Valid {
			v.Thumbnail = &model.Thumbnail{
				ID:          t.id.String,
				Path:        t.path.String,
				ETag:        nullString(t.etag),
				BlurDataURL: t.blur.String,
				Width:       int(t.width.Int64),
				Height:      int(t.height.Int64),
				DeletedAt:   nullTime(t.deletedAt),
				UpdatedAt:   t.updatedAt.Time,
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpsertVideos writes every row in a single statement keyed by slug and
// returns the number of rows written. Later rows win over earlier ones with the same slug.
func (r *VideoRepository) UpsertVideos(ctx context.Context, videos []model.Video) (int64, error) {
	if len(videos) == 0 {
		return 0, nil
	}
	videos = dedupeVideos(videos)

	n := len(videos)
	var (
		slugs        = make([]string, 0, n)
		channelIDs   = make([]string, 0, n)
		titles       = make([]string, 0, n)
		durations    = make([]string, 0, n)
		publishedAts = make([]string, 0, n)
		statuses     = make([]string, 0, n)
		kinds        = make([]string, 0, n)
		thumbnailIDs = make([]string, 0, n)
		deletedAts   = make([]string, 0, n)
		createdAts   = make([]string, 0, n)
		updatedAts   = make([]string, 0, n)
	)
	for _, v := range videos {
		createdAt := v.CreatedAt
		if createdAt.IsZero() {
			createdAt = v.UpdatedAt
		}
		kind := v.Kind
		if kind == "" {
			kind = model.VideoKindStandard
		}
		slugs = append(slugs, v.Slug)
		channelIDs = append(channelIDs, v.ChannelID)
		titles = append(titles, v.Title)
		durations = append(durations, v.Duration)
		publishedAts = append(publishedAts, formatTime(v.PublishedAt))
		statuses = append(statuses, string(v.Status))
		kinds = append(kinds, string(kind))
		thumbnailIDs = append(thumbnailIDs, derefString(v.ThumbnailID))
		deletedAts = append(deletedAts, formatTimePtr(v.DeletedAt))
		createdAts = append(createdAts, formatTime(createdAt))
		updatedAts = append(updatedAts, formatTime(v.UpdatedAt))
	}

	q := `INSERT INTO videos (slug, channel_id, title, duration, published_at, status, video_kind, thumbnail_id, deleted_at, created_at, updated_at)
        SELECT u.slug, u.channel_id::uuid, u.title, u.duration, u.published_at::timestamptz, u.status, u.video_kind,
            NULLIF(u.thumbnail_id, '')::uuid, NULLIF(u.deleted_at, '')::timestamptz, u.created_at::timestamptz, u.updated_at::timestamptz
        FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[], $8::text[], $9::text[], $10::text[], $11::text[])
            AS u(slug, channel_id, title, duration, published_at, status, video_kind, thumbnail_id, deleted_at, created_at, updated_at)
        ON CONFLICT (slug) DO UPDATE SET title=EXCLUDED.title, duration=EXCLUDED.duration, published_at=EXCLUDED.published_at,
            status=EXCLUDED.status, video_kind=EXCLUDED.video_kind, thumbnail_id=COALESCE(EXCLUDED.thumbnail_id, videos.thumbnail_id),
            deleted_at=EXCLUDED.deleted_at, updated_at=EXCLUDED.updated_at`
	res, err := r.db.ExecContext(ctx, q,
		pq.Array(slugs), pq.Array(channelIDs), pq.Array(titles), pq.Array(durations), pq.Array(publishedAts),
		pq.Array(statuses), pq.Array(kinds), pq.Array(thumbnailIDs), pq.Array(deletedAts), pq.Array(createdAts), pq.Array(updatedAts))
	if err != nil {
		return 0, fmt.Errorf("upsert videos: %w", err)
	}
	return res.RowsAffected()
}

func (r *VideoRepository) SoftDeleteVideos(ctx context.Context, ids []string, at time.Time) (int64, error) {
	return softDelete(ctx, r.db, "videos", ids, at)
}

// softDelete stamps deleted_at and updated_at on rows that are not deleted yet.
func softDelete(ctx context.Context, db *sql.DB, table string, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := fmt.Sprintf(`UPDATE %s SET deleted_at = $1, updated_at = $1 WHERE id = ANY($2::uuid[]) AND deleted_at IS NULL`, table)
	res, err := db.ExecContext(ctx, q, at.UTC(), pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("soft delete %s: %w", table, err)
	}
	return res.RowsAffected()
}

func dedupeVideos(videos []model.Video) []model.Video {
	index := make(map[string]int, len(videos))
	out := make([]model.Video, 0, len(videos))
	for _, v := range videos {
		if i, ok := index[v.Slug]; ok {
			out[i] = v
			continue
		}
		index[v.Slug] = len(out)
		out = append(out, v)
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
