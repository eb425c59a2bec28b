package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/cache"
	youtubeclient "catalog-sync/infrastructure/clients/youtube"
	"catalog-sync/infrastructure/configuration"
	"catalog-sync/infrastructure/fetch"
	"catalog-sync/infrastructure/logger"
	"catalog-sync/infrastructure/persistence"
	"catalog-sync/infrastructure/popularity"
	"catalog-sync/infrastructure/pubsub"
	"catalog-sync/infrastructure/servicebus"
	"catalog-sync/infrastructure/storage"
	"catalog-sync/infrastructure/thumbnail"
	"catalog-sync/infrastructure/worker"
	httpHandler "catalog-sync/interfaces/http"
	"catalog-sync/server"
	"catalog-sync/usecase"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// OS env keeps precedence over the files
	configuration.LoadEnvFromFile("config.env", ".env")
	app := configuration.C.App

	loc, err := time.LoadLocation(app.TimeZone)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("timeZone", app.TimeZone).Warn("Unknown time zone, using UTC")
		loc = time.UTC
	}

	psqlDb, termDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Database initialization failed")
	}
	defer psqlDb.Close()

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
		configuration.C.RedisClient.DB,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Redis initialization failed")
	}
	defer redisClient.Close()

	cacheTTL := time.Duration(configuration.C.Fetch.CacheTTLSeconds) * time.Second
	var responseStorage repository.ICacheStorage = cache.NewRedisStorage(redisClient, cache.WithDefaultTTL(cacheTTL))
	if configuration.C.Fetch.Backend == "memory" {
		responseStorage = cache.NewMemoryStorage(cacheTTL)
	}
	retry := fetch.WithRetry(fetch.RetryConfig{Retries: configuration.C.Fetch.Retries, AbortOn404: true})
	responseCache, err := fetch.WithCache(fetch.CacheConfig{
		Storage: responseStorage,
		TTL:     cacheTTL,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Response cache initialization failed")
	}
	// Retry is outermost: every attempt revalidates against the stored ETag.
	providerTransport := fetch.Compose(fetch.FromTransport(nil), retry, responseCache)
	downloadTransport := fetch.Compose(fetch.FromTransport(nil), retry)

	youtubeConfig := configuration.GetYouTubeConfig()
	logger.GetLogger().
		WithField("oauth", youtubeConfig.UsesOAuth()).
		WithField("hasAPIKey", youtubeConfig.APIKey != "").
		Info("Loaded YouTube configuration state")
	service, err := youtubeclient.NewService(ctx, &youtubeclient.Config{
		APIKey:       youtubeConfig.APIKey,
		ClientID:     youtubeConfig.ClientID,
		ClientSecret: youtubeConfig.ClientSecret,
		RefreshToken: youtubeConfig.RefreshToken,
		Transport:    providerTransport,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("YouTube initialization failed")
	}
	scraper := youtubeclient.NewScraper(service, worker.NewQueue(
		configuration.C.Scraper.Concurrency,
		time.Duration(configuration.C.Scraper.IntervalMs)*time.Millisecond,
	))
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer closeCancel()
		if err := scraper.Close(closeCtx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Scraper queue did not drain")
		}
	}()

	objectStorage := storage.NewClient(
		configuration.C.Storage.URL,
		configuration.C.Storage.Bucket,
		configuration.C.Storage.ServiceKey,
		downloadTransport,
	)
	thumbnailQueue := worker.NewQueue(
		configuration.C.Thumbnail.Concurrency,
		time.Duration(configuration.C.Thumbnail.IntervalMs)*time.Millisecond,
	)
	processor := thumbnail.NewProcessor(objectStorage, downloadTransport, thumbnailQueue)

	notifier, closeNotifier := InitiateNotifier(ctx)
	defer closeNotifier()

	catalogOptions := []usecase.CatalogOption{usecase.WithSyncMarker(cache.NewSyncMarker(redisClient))}
	if notifier != nil {
		catalogOptions = append(catalogOptions, usecase.WithNotifier(notifier))
	}
	catalogUsecase := usecase.NewCatalogUsecase(
		scraper,
		persistence.NewVideoRepository(psqlDb),
		persistence.NewThumbnailRepository(psqlDb),
		persistence.NewChannelRepository(psqlDb),
		processor,
		catalogOptions...,
	)

	var terms repository.ITerm
	if termDb != nil {
		terms = persistence.NewTermRepository(termDb)
	}
	engine := popularity.NewEngine(redisClient, terms, popularity.WithLocation(loc))
	popularityOptions := []usecase.PopularityOption{usecase.WithStats(persistence.NewStatsRepository(psqlDb))}
	if terms != nil {
		popularityOptions = append(popularityOptions, usecase.WithTerms(terms))
	}
	popularityUsecase := usecase.NewPopularityUsecase(engine, loc, popularityOptions...)

	router := server.InitiateRouter(
		httpHandler.NewJobHandler(catalogUsecase, popularityUsecase, cache.NewJobLock(redisClient)),
		httpHandler.NewPopularityHandler(popularityUsecase),
		httpHandler.NewHealthHandler(map[string]httpHandler.HealthCheck{
			"postgres": psqlDb.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
		server.RouterConfig{AllowedOrigins: app.AllowedOrigins, CronSecret: app.CronSecret},
	)

	logger.GetLogger().WithField("port", app.Port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
	}
}

// InitiateDatabase opens the catalog store and prepares its schema. The term
// dictionary is optional: without a MySQL host it is nil.
func InitiateDatabase() (*sql.DB, *gorm.DB, error) {
	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		return nil, nil, err
	}
	if err := persistence.EnsureCatalogSchema(psqlDb); err != nil {
		_ = psqlDb.Close()
		return nil, nil, err
	}

	if configuration.C.Database.MySql.Host == "" {
		logger.GetLogger().Info("MySQL host not set; recommendations use raw search terms")
		return psqlDb, nil, nil
	}
	termDb, err := persistence.NewTermDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Term dictionary not available - continuing without canonical terms")
		return psqlDb, nil, nil
	}
	return psqlDb, termDb, nil
}

// InitiateNotifier picks Pub/Sub when a project is configured, otherwise
// Service Bus when a namespace is. The returned func releases the client.
func InitiateNotifier(ctx context.Context) (repository.ITagNotifier, func()) {
	if projectID := configuration.C.Pubsub.ProjectID; projectID != "" {
		client, err := pubsub.NewClient(ctx, projectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PubSub not available - revalidation disabled")
			return nil, func() {}
		}
		return pubsub.NewTagNotifier(client, configuration.C.Pubsub.Topic), func() { _ = client.Close() }
	}
	if namespace := configuration.C.ServiceBus.Namespace; namespace != "" {
		client, err := servicebus.NewClient(namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - revalidation disabled")
			return nil, func() {}
		}
		return servicebus.NewTagNotifier(client, configuration.C.ServiceBus.Queue), func() {
			_ = client.Close(context.Background())
		}
	}
	logger.GetLogger().Info("No revalidation notifier configured")
	return nil, func() {}
}
