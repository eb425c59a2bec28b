package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"catalog-sync/domain/dto"
	"catalog-sync/domain/repository"
	"catalog-sync/infrastructure/logger"
	"catalog-sync/usecase"

	"github.com/gin-gonic/gin"
)

const (
	// RecentJobInterval is the minimum spacing of jobs over recent videos.
	RecentJobInterval = time.Minute
	// AllJobInterval is the minimum spacing of jobs over the whole catalog.
	AllJobInterval = time.Hour
	// SnapshotJobInterval is the minimum spacing of the daily stats snapshot.
	SnapshotJobInterval = time.Hour
)

type IJobHandler interface {
	CheckVideos(c *gin.Context)
	UpdateVideos(c *gin.Context)
	UpdateChannels(c *gin.Context)
	ImportVideos(c *gin.Context)
	UpdateRecommendations(c *gin.Context)
	UpdateTermPopularity(c *gin.Context)
	SnapshotStats(c *gin.Context)
}

type JobHandler struct {
	catalog    usecase.ICatalogUsecase
	popularity usecase.IPopularityUsecase
	lock       repository.IJobLock
}

// NewJobHandler builds the job triggers. A nil lock lets every trigger run.
func NewJobHandler(catalog usecase.ICatalogUsecase, popularity usecase.IPopularityUsecase, lock repository.IJobLock) IJobHandler {
	return &JobHandler{catalog: catalog, popularity: popularity, lock: lock}
}

func (h *JobHandler) CheckVideos(c *gin.Context) {
	all := allParam(c)
	h.run(c, "videos:check", all, func(ctx context.Context) (*dto.JobReport, error) {
		return h.catalog.CheckVideos(ctx, all)
	})
}

func (h *JobHandler) UpdateVideos(c *gin.Context) {
	all := allParam(c)
	h.run(c, "videos:update", all, func(ctx context.Context) (*dto.JobReport, error) {
		return h.catalog.UpdateVideos(ctx, all)
	})
}

func (h *JobHandler) UpdateChannels(c *gin.Context) {
	h.run(c, "channels:update", false, h.catalog.UpdateChannels)
}

func (h *JobHandler) ImportVideos(c *gin.Context) {
	all := allParam(c)
	h.run(c, "videos:import", all, func(ctx context.Context) (*dto.JobReport, error) {
		return h.catalog.ImportVideos(ctx, all)
	})
}

func (h *JobHandler) UpdateRecommendations(c *gin.Context) {
	h.run(c, "recommendations:update", false, h.popularity.UpdateRecommendations)
}

func (h *JobHandler) UpdateTermPopularity(c *gin.Context) {
	h.run(c, "terms:popularity:update", false, h.popularity.UpdateTermPopularity)
}

func (h *JobHandler) SnapshotStats(c *gin.Context) {
	h.runEvery(c, "stats:snapshot", SnapshotJobInterval, h.popularity.SnapshotStats)
}

// run locks job for RecentJobInterval, or job:all for AllJobInterval. The two
// keys are independent, so an all run may overlap a recent run of the same job.
func (h *JobHandler) run(c *gin.Context, job string, all bool, fn func(ctx context.Context) (*dto.JobReport, error)) {
	if all {
		h.runEvery(c, job+":all", AllJobInterval, fn)
		return
	}
	h.runEvery(c, job, RecentJobInterval, fn)
}

func (h *JobHandler) runEvery(c *gin.Context, key string, interval time.Duration, fn func(ctx context.Context) (*dto.JobReport, error)) {
	if h.lock != nil {
		acquired, err := h.lock.Acquire(c.Request.Context(), key, interval)
		if err != nil {
			logger.GetLogger().WithField("error", err).WithField("job", key).Error("failed to acquire job lock")
			c.JSON(http.StatusServiceUnavailable, dto.Res{ResponseCode: "503", ResponseMessage: "job lock unavailable"})
			return
		}
		if !acquired {
			c.Header("Retry-After", strconv.Itoa(int(interval.Seconds())))
			c.JSON(http.StatusTooManyRequests, dto.Res{ResponseCode: "429", ResponseMessage: key + " ran recently"})
			return
		}
	}

	report, err := fn(c.Request.Context())
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("job", key).Error("job finished with errors")
		if report == nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, usecase.ErrInvalidInput):
				status = http.StatusBadRequest
			case errors.Is(err, usecase.ErrNoTermDictionary):
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, dto.Res{ResponseCode: strconv.Itoa(status), ResponseMessage: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, report)
		return
	}
	logger.GetLogger().
		WithField("job", key).
		WithField("processed", report.Processed).
		WithField("upserted", report.Upserted).
		WithField("softDeleted", report.SoftDeleted).
		WithField("notFound", report.NotFound).
		WithField("durationMs", report.DurationMs).
		Info("job finished")
	c.JSON(http.StatusOK, report)
}

func allParam(c *gin.Context) bool {
	all, _ := strconv.ParseBool(c.DefaultQuery("all", "false"))
	return all
}
