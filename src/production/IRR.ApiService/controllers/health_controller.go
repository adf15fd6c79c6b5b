package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.ApiService/health"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
)

// HealthController exposes liveness information
type HealthController struct {
	checker *health.HealthChecker
	logger  *logger.Logger
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker, logger *logger.Logger) *HealthController {
	return &HealthController{
		checker: checker,
		logger:  logger,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.GetHealth)
}

func (c *HealthController) GetHealth(ctx *gin.Context) {
	status := c.checker.GetHealthStatus(ctx)

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, status)
}
