package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/radityabs/huddle-backend/internal/application"
	"github.com/radityabs/huddle-backend/pkg/response"
)

type DeviceHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewDeviceHandler(svc *userapp.Service, logger *logrus.Logger) *DeviceHandler {
	return &DeviceHandler{Svc: svc, Logger: logger}
}

// ListDevices returns the caller's active sessions with refresh tokens
// blanked out.
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	uid := c.GetString("userID")
	sessions, ferr := h.Svc.ListSessions(c.Request.Context(), uid)
	if ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success(c, http.StatusOK, sessions, "active devices", map[string]any{"count": len(sessions)})
}

// RemoveDevice revokes one of the caller's sessions. A session belonging to
// another user is reported as not found.
func (h *DeviceHandler) RemoveDevice(c *gin.Context) {
	uid := c.GetString("userID")
	id := c.Param("id")
	if ferr := h.Svc.RemoveSession(c.Request.Context(), uid, id); ferr != nil {
		fail(c, h.Logger, ferr)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"removed": true}, "device removed", nil)
}
