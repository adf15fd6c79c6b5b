package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	control "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Control"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// ThresholdController handles the administrative band update
type ThresholdController struct {
	service *control.ControlService
	logger  *logger.Logger
}

// NewThresholdController creates a new threshold controller
func NewThresholdController(service *control.ControlService, logger *logger.Logger) *ThresholdController {
	return &ThresholdController{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the threshold routes with Gin
func (c *ThresholdController) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/threshold", c.UpdateThreshold)
}

func (c *ThresholdController) UpdateThreshold(ctx *gin.Context) {
	var req irrmodels.ThresholdUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	resp, err := c.service.UpdateThresholds(ctx, req)
	if err != nil {
		var verr *irrmodels.ValidationError
		if errors.As(err, &verr) {
			ctx.JSON(http.StatusBadRequest, verr.Fields)
			return
		}
		c.logger.ErrorWithError(err, "threshold update failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, resp)
}
