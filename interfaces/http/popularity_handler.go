package http

import (
	"errors"
	"net/http"
	"strconv"

	"catalog-sync/domain/dto"
	"catalog-sync/infrastructure/logger"
	"catalog-sync/usecase"

	"github.com/gin-gonic/gin"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 100
)

type IPopularityHandler interface {
	Ranking(c *gin.Context)
	Recommendations(c *gin.Context)
	RecordClick(c *gin.Context)
	RecordSearch(c *gin.Context)
}

type PopularityHandler struct {
	popularity usecase.IPopularityUsecase
}

func NewPopularityHandler(popularity usecase.IPopularityUsecase) IPopularityHandler {
	return &PopularityHandler{popularity: popularity}
}

// Ranking handles GET /api/rankings/:metric?start=YYYY-MM-DD&end=YYYY-MM-DD&limit=N
func (h *PopularityHandler) Ranking(c *gin.Context) {
	res, err := h.popularity.Ranking(c.Request.Context(), c.Param("metric"), c.Query("start"), c.Query("end"), limitParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Recommendations handles GET /api/recommendations?limit=N
func (h *PopularityHandler) Recommendations(c *gin.Context) {
	res, err := h.popularity.Recommendations(c.Request.Context(), limitParam(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PopularityHandler) RecordClick(c *gin.Context) {
	var req dto.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}
	if err := h.popularity.RecordClick(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PopularityHandler) RecordSearch(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}
	if err := h.popularity.RecordSearch(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return defaultRankingLimit
	}
	if limit > maxRankingLimit {
		return maxRankingLimit
	}
	return limit
}

func fail(c *gin.Context, err error) {
	if errors.Is(err, usecase.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: err.Error()})
		return
	}
	logger.GetLogger().WithField("error", err).WithField("path", c.FullPath()).Error("popularity request failed")
	c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal server error"})
}
