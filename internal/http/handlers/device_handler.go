// README: Device handler: push notification token registration.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/notify"
	"lifti/internal/types"
)

type DeviceHandler struct {
	notify *notify.Service
}

func NewDeviceHandler(svc *notify.Service) *DeviceHandler {
	return &DeviceHandler{notify: svc}
}

type registerTokenReq struct {
	Token string `json:"token"`
}

func (h *DeviceHandler) RegisterToken(c *gin.Context) {
	var req registerTokenReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		writeError(c, http.StatusBadRequest, "missing token")
		return
	}
	uid := types.ID(middleware.CallerUID(c))
	if err := h.notify.RegisterDeviceToken(c.Request.Context(), uid, req.Token); err != nil {
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "registered"})
}
