package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.ApiService/middleware"
	control "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Control"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// TelemetryController handles the device ingestion endpoint
type TelemetryController struct {
	service *control.ControlService
	logger  *logger.Logger
}

// NewTelemetryController creates a new telemetry controller
func NewTelemetryController(service *control.ControlService, logger *logger.Logger) *TelemetryController {
	return &TelemetryController{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the telemetry routes with Gin
func (c *TelemetryController) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/telemetry", c.PostTelemetry)
}

func (c *TelemetryController) PostTelemetry(ctx *gin.Context) {
	token := middleware.ExtractBearerToken(ctx.Request)
	if token == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid device token"})
		return
	}

	var req irrmodels.TelemetryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	pumpOn, err := c.service.Ingest(ctx, token, req)
	if err != nil {
		var verr *irrmodels.ValidationError
		switch {
		case errors.Is(err, irrmodels.ErrUnauthorized):
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid device token"})
		case errors.As(err, &verr):
			ctx.JSON(http.StatusBadRequest, verr.Fields)
		default:
			c.logger.ErrorWithError(err, "telemetry ingestion failed")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, irrmodels.TelemetryResponse{Status: "ok", PumpOn: pumpOn})
}
