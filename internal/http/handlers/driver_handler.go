// README: Driver handlers: pool membership, open bookings, trip transitions.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/modules/booking"
	"lifti/internal/modules/matching"
	"lifti/internal/types"
)

type DriverHandler struct {
	booking  *booking.Service
	matching *matching.Service
}

func NewDriverHandler(bookingSvc *booking.Service, matchingSvc *matching.Service) *DriverHandler {
	return &DriverHandler{booking: bookingSvc, matching: matchingSvc}
}

// requireDriver rejects callers whose token does not carry the driver role
// or whose UID does not match the claimed driver id.
func requireDriver(c *gin.Context, driverID string) bool {
	if middleware.CallerRole(c) != "driver" {
		writeError(c, http.StatusForbidden, "driver role required")
		return false
	}
	if driverID != "" && driverID != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "cannot act for another driver")
		return false
	}
	return true
}

type joinPoolReq struct {
	VehicleClass string  `json:"vehicle_class"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

func (h *DriverHandler) JoinPool(c *gin.Context) {
	if !requireDriver(c, "") {
		return
	}
	var req joinPoolReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.matching.JoinPool(c.Request.Context(), matching.Candidate{
		ID:           types.ID(middleware.CallerUID(c)),
		VehicleClass: req.VehicleClass,
		Position:     types.Point{Lat: req.Lat, Lng: req.Lng},
		JoinTime:     time.Now(),
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "online"})
}

func (h *DriverHandler) LeavePool(c *gin.Context) {
	if !requireDriver(c, "") {
		return
	}
	if err := h.matching.LeavePool(c.Request.Context(), types.ID(middleware.CallerUID(c))); err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "offline"})
}

// ListOpen returns broadcast bookings any driver may claim.
func (h *DriverHandler) ListOpen(c *gin.Context) {
	if !requireDriver(c, "") {
		return
	}
	open, err := h.matching.ListOpen(c.Request.Context())
	if err != nil {
		writeBookingError(c, err)
		return
	}
	views := make([]map[string]any, len(open))
	for i, b := range open {
		views[i] = bookingView(b)
	}
	writeJSON(c, http.StatusOK, map[string]any{"bookings": views})
}

type driverActionReq struct {
	DriverID string `json:"driver_id"`
}

func (h *DriverHandler) Accept(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	var req driverActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.DriverID == "" {
		writeError(c, http.StatusBadRequest, "missing driver id")
		return
	}
	if !requireDriver(c, req.DriverID) {
		return
	}
	err := h.booking.Accept(c.Request.Context(), booking.AcceptCommand{
		BookingID: types.ID(id),
		DriverID:  types.ID(req.DriverID),
	})
	if err == booking.ErrInvalidState && h.matching != nil {
		// Not matched to this driver: the booking may be on the open list,
		// where any driver can claim it directly.
		err = h.matching.Claim(c.Request.Context(), types.ID(id), types.ID(req.DriverID))
	}
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": booking.StatusAccepted})
}

func (h *DriverHandler) Start(c *gin.Context) {
	h.transition(c, booking.StatusInProgress)
}

func (h *DriverHandler) Complete(c *gin.Context) {
	h.transition(c, booking.StatusCompleted)
}

func (h *DriverHandler) transition(c *gin.Context, to booking.Status) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	if !requireDriver(c, "") {
		return
	}
	b, err := h.booking.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if b.DriverID == nil || string(*b.DriverID) != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "not your booking")
		return
	}
	switch to {
	case booking.StatusInProgress:
		err = h.booking.Start(c.Request.Context(), booking.StartCommand{BookingID: types.ID(id)})
	case booking.StatusCompleted:
		err = h.booking.Complete(c.Request.Context(), booking.CompleteCommand{BookingID: types.ID(id)})
	}
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": to})
}
