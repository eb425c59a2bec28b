package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catalog-sync/domain/model"

	"github.com/lib/pq"
)

// ThumbnailRepository persists stored thumbnail assets in PostgreSQL.
type ThumbnailRepository struct{ db *sql.DB }

func NewThumbnailRepository(db *sql.DB) *ThumbnailRepository {
	return &ThumbnailRepository{db: db}
}

// UpsertThumbnails writes every row in a single statement keyed by id.
func (r *ThumbnailRepository) UpsertThumbnails(ctx context.Context, thumbnails []model.Thumbnail) (int64, error) {
	if len(thumbnails) == 0 {
		return 0, nil
	}
	n := len(thumbnails)
	var (
		ids        = make([]string, 0, n)
		paths      = make([]string, 0, n)
		etags      = make([]string, 0, n)
		blurs      = make([]string, 0, n)
		widths     = make([]int64, 0, n)
		heights    = make([]int64, 0, n)
		deletedAts = make([]string, 0, n)
		updatedAts = make([]string, 0, n)
	)
	for _, t := range thumbnails {
		ids = append(ids, t.ID)
		paths = append(paths, t.Path)
		etags = append(etags, derefString(t.ETag))
		blurs = append(blurs, t.BlurDataURL)
		widths = append(widths, int64(t.Width))
		heights = append(heights, int64(t.Height))
		deletedAts = append(deletedAts, formatTimePtr(t.DeletedAt))
		updatedAts = append(updatedAts, formatTime(t.UpdatedAt))
	}

	q := `INSERT INTO thumbnails (id, path, etag, blur_data_url, width, height, deleted_at, updated_at)
        SELECT u.id::uuid, u.path, NULLIF(u.etag, ''), u.blur_data_url, u.width, u.height,
            NULLIF(u.deleted_at, '')::timestamptz, u.updated_at::timestamptz
        FROM unnest($1::text[], $2::text[], $3::text[], $4::text[], $5::int[], $6::int[], $7::text[], $8::text[])
            AS u(id, path, etag, blur_data_url, width, height, deleted_at, updated_at)
        ON CONFLICT (id) DO UPDATE SET path=EXCLUDED.path, etag=EXCLUDED.etag, blur_data_url=EXCLUDED.blur_data_url,
            width=EXCLUDED.width, height=EXCLUDED.height, deleted_at=EXCLUDED.deleted_at, updated_at=EXCLUDED.updated_at`
	res, err := r.db.ExecContext(ctx, q,
		pq.Array(ids), pq.Array(paths), pq.Array(etags), pq.Array(blurs),
		pq.Array(widths), pq.Array(heights), pq.Array(deletedAts), pq.Array(updatedAts))
	if err != nil {
		return 0, fmt.Errorf("upsert thumbnails: %w", err)
	}
	return res.RowsAffected()
}

func (r *ThumbnailRepository) SoftDeleteThumbnails(ctx context.Context, ids []string, at time.Time) (int64, error) {
	return softDelete(ctx, r.db, "thumbnails", ids, at)
}
