// README: Location handlers: position updates and nearby driver lookup.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/modules/location"
	"lifti/internal/types"
)

type LocationHandler struct {
	location *location.Service
	radiusKm float64
}

func NewLocationHandler(svc *location.Service, radiusKm float64) *LocationHandler {
	return &LocationHandler{location: svc, radiusKm: radiusKm}
}

type updateLocationReq struct {
	UserType string  `json:"user_type"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

func (h *LocationHandler) Update(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.location.Update(c.Request.Context(), location.Update{
		UserID:   types.ID(middleware.CallerUID(c)),
		UserType: req.UserType,
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *LocationHandler) NearbyDrivers(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "missing lat/lng")
		return
	}
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			writeError(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	drivers, err := h.location.NearestDrivers(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, h.radiusKm, limit)
	if err != nil {
		writeLocationError(c, err)
		return
	}
	views := make([]map[string]any, len(drivers))
	for i, d := range drivers {
		views[i] = map[string]any{
			"driver_id":   d.DriverID,
			"lat":         d.Position.Lat,
			"lng":         d.Position.Lng,
			"distance_km": d.DistanceKm,
		}
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": views})
}
