package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.ApiService/middleware"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
	realtime "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Realtime"
	interfaces "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Repository/Interfaces"
)

// WSController owns the two WebSocket connection lifecycles: the
// authenticate-or-reject device handshake and the accept-all frontend one.
type WSController struct {
	registry    *realtime.SessionRegistry
	devices     interfaces.DeviceRepository
	deviceToken string
	queueSize   int
	upgrader    websocket.Upgrader
	logger      *logger.Logger
}

// NewWSController creates a new WebSocket controller
func NewWSController(registry *realtime.SessionRegistry, devices interfaces.DeviceRepository, deviceToken string, queueSize int, log *logger.Logger) *WSController {
	return &WSController{
		registry:    registry,
		devices:     devices,
		deviceToken: deviceToken,
		queueSize:   queueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Frontend observers connect from arbitrary origins; broad read
			// access is this deployment's threat model.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.WithComponent("ws"),
	}
}

// RegisterRoutes registers the WebSocket routes with Gin
func (c *WSController) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws/device", c.HandleDevice)
	router.GET("/ws/frontend", c.HandleFrontend)
}

// HandleDevice authenticates the handshake before the upgrade: a bad token
// or an unknown device is rejected with 401 and never joins a group. The
// device row must already exist; connecting does not provision it.
func (c *WSController) HandleDevice(ctx *gin.Context) {
	token := middleware.ExtractQueryToken(ctx.Request)
	if subtle.ConstantTimeCompare([]byte(token), []byte(c.deviceToken)) != 1 {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid device token"})
		return
	}

	device, err := c.devices.GetDeviceByToken(ctx, token)
	if err != nil {
		c.logger.ErrorWithError(err, "device lookup failed during handshake")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if device == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid device token"})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.WithError(err).Warn("device upgrade failed")
		return
	}

	session := realtime.NewSession(uuid.NewString(), realtime.KindDevice, device.DeviceID, conn, c.queueSize, c.logger)
	c.registry.Register(session)
	c.registry.Join(session.ID, irrmodels.DeviceGroup(device.DeviceID))

	go session.WritePump()
	go session.ReadPump(func() {
		c.registry.Unregister(session.ID)
		session.Close()
	})
}

// HandleFrontend accepts unconditionally and joins the frontend group.
func (c *WSController) HandleFrontend(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.WithError(err).Warn("frontend upgrade failed")
		return
	}

	session := realtime.NewSession(uuid.NewString(), realtime.KindFrontend, "", conn, c.queueSize, c.logger)
	c.registry.Register(session)
	c.registry.Join(session.ID, irrmodels.FrontendGroup)

	go session.WritePump()
	go session.ReadPump(func() {
		c.registry.Unregister(session.ID)
		session.Close()
	})
}
