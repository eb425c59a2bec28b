package persistence

import (
	"database/sql"
	"fmt"

	"catalog-sync/infrastructure/logger"
)

// EnsureCatalogSchema creates the channel, video and thumbnail tables if they do not exist.
func EnsureCatalogSchema(db *sql.DB) error {
	statements := []struct {
		name string
		ddl  string
	}{
		{"channels", `CREATE TABLE IF NOT EXISTS channels (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        slug TEXT NOT NULL UNIQUE,
        name TEXT NOT NULL,
        deleted_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`},
		{"thumbnails", `CREATE TABLE IF NOT EXISTS thumbnails (
        id UUID PRIMARY KEY,
        path TEXT NOT NULL,
        etag TEXT,
        blur_data_url TEXT NOT NULL,
        width INTEGER NOT NULL,
        height INTEGER NOT NULL,
        deleted_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`},
		{"videos", `CREATE TABLE IF NOT EXISTS videos (
        id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
        slug TEXT NOT NULL UNIQUE,
        channel_id UUID NOT NULL REFERENCES channels(id),
        title TEXT NOT NULL,
        duration TEXT NOT NULL DEFAULT 'P0D',
        published_at TIMESTAMPTZ NOT NULL,
        status TEXT NOT NULL,
        video_kind TEXT NOT NULL DEFAULT 'standard',
        thumbnail_id UUID REFERENCES thumbnails(id),
        deleted_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`},
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("create %s table: %w", stmt.name, err)
		}
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_videos_published_at ON videos(published_at DESC) WHERE deleted_at IS NULL`); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed creating idx_videos_published_at")
	}
	return nil
}
