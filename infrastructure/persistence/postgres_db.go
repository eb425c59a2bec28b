package persistence

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"catalog-sync/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens the catalog database using native database/sql.
func NewPostgreSQLDB() (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURL(configuration.C.Database.Psql))
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func postgresURL(cfg configuration.Db) string {
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	u := &url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	return u.String()
}
