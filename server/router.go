package server

import (
	"net/http"
	"time"

	httpHandler "catalog-sync/interfaces/http"
	"catalog-sync/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	CronSecret     string
}

func InitiateRouter(
	jobHandler httpHandler.IJobHandler,
	popularityHandler httpHandler.IPopularityHandler,
	healthHandler httpHandler.IHealthHandler,
	config RouterConfig,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", healthHandler.Healthz)

	api := router.Group("api")
	api.GET("/rankings/:metric", popularityHandler.Ranking)
	api.GET("/recommendations", popularityHandler.Recommendations)
	api.POST("/clicks", popularityHandler.RecordClick)
	api.POST("/searches", popularityHandler.RecordSearch)

	// Schedulers call jobs with GET; POST is accepted for manual runs.
	jobs := api.Group("jobs")
	jobs.Use(middleware.CronAuth(config.CronSecret))
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		jobs.Handle(method, "/videos/check", jobHandler.CheckVideos)
		jobs.Handle(method, "/videos/update", jobHandler.UpdateVideos)
		jobs.Handle(method, "/videos/import", jobHandler.ImportVideos)
		jobs.Handle(method, "/channels/update", jobHandler.UpdateChannels)
		jobs.Handle(method, "/recommendations/update", jobHandler.UpdateRecommendations)
		jobs.Handle(method, "/terms/popularity/update", jobHandler.UpdateTermPopularity)
		jobs.Handle(method, "/stats/snapshot", jobHandler.SnapshotStats)
	}

	return router
}
