package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	control "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Control"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// StatusController handles status and history queries
type StatusController struct {
	service *control.ControlService
	logger  *logger.Logger
}

// NewStatusController creates a new status controller
func NewStatusController(service *control.ControlService, logger *logger.Logger) *StatusController {
	return &StatusController{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the status routes with Gin
func (c *StatusController) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/status", c.GetStatus)
	router.GET("/api/humidity/recent", c.GetRecentHumidity)
}

func (c *StatusController) GetStatus(ctx *gin.Context) {
	status, err := c.service.Status(ctx)
	if err != nil {
		c.logger.ErrorWithError(err, "status query failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, status)
}

func (c *StatusController) GetRecentHumidity(ctx *gin.Context) {
	seconds := 0
	if raw := ctx.Query("seconds"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "seconds must be a positive integer"})
			return
		}
		seconds = parsed
	}

	entries, err := c.service.RecentHistory(ctx, seconds)
	if err != nil {
		c.logger.ErrorWithError(err, "history query failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if entries == nil {
		entries = []irrmodels.HistoryEntry{}
	}
	ctx.JSON(http.StatusOK, entries)
}
