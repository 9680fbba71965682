package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radityabs/huddle-backend/internal/container"
	handlers "github.com/radityabs/huddle-backend/internal/interface/http"
	"github.com/radityabs/huddle-backend/internal/interface/middleware"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// DeviceModule wires session management routes under /api/devices.
// All routes require a valid access token.
type DeviceModule struct {
	Handler *handlers.DeviceHandler
	Tokens  *helpers.TokenManager
}

func NewDeviceModule(h *handlers.DeviceHandler, tokens *helpers.TokenManager) *DeviceModule {
	return &DeviceModule{Handler: h, Tokens: tokens}
}

func (m *DeviceModule) Register(rg *gin.RouterGroup) {
	devices := rg.Group("/devices")
	devices.Use(middleware.Auth(m.Tokens))
	devices.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		devices.GET("", m.Handler.ListDevices)
		devices.DELETE("/:id", m.Handler.RemoveDevice)
	}
}
