// README: Booking handlers for create/get/cancel (passenger side).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/modules/booking"
	"lifti/internal/modules/fare"
	"lifti/internal/types"
)

type BookingHandler struct {
	booking *booking.Service
}

func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{booking: svc}
}

type createBookingReq struct {
	PassengerID  string   `json:"passenger_id"`
	AccountID    string   `json:"account_id"`
	Service      string   `json:"service"`
	VehicleClass string   `json:"vehicle_class"`
	PackageSize  string   `json:"package_size"`
	RoundTrip    bool     `json:"round_trip"`
	PickupLat    float64  `json:"pickup_lat"`
	PickupLng    float64  `json:"pickup_lng"`
	DropoffLat   float64  `json:"dropoff_lat"`
	DropoffLng   float64  `json:"dropoff_lng"`
	DistanceKm   float64  `json:"distance_km"`
	PatternKind  string   `json:"pattern_kind"`
	PatternDates []string `json:"pattern_dates"`
	PatternMonth string   `json:"pattern_month"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.PassengerID == "" || req.Service == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	if req.PassengerID != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "cannot book for another passenger")
		return
	}
	pattern, err := parsePattern(req.PatternKind, req.PatternDates, req.PatternMonth)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	cmd := booking.CreateCommand{
		PassengerID:  types.ID(req.PassengerID),
		Service:      fare.ServiceType(req.Service),
		VehicleClass: fare.VehicleClass(req.VehicleClass),
		PackageSize:  fare.PackageSize(req.PackageSize),
		RoundTrip:    req.RoundTrip,
		Pickup:       types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:      types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		DistanceKm:   req.DistanceKm,
		Pattern:      pattern,
	}
	if req.AccountID != "" {
		accountID := types.ID(req.AccountID)
		cmd.AccountID = &accountID
	}

	id, err := h.booking.Create(c.Request.Context(), cmd)
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"booking_id": id, "status": booking.StatusRequested})
}

func (h *BookingHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.booking.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if string(b.PassengerID) != middleware.CallerUID(c) && !callerHoldsBooking(c, b) {
		writeError(c, http.StatusForbidden, "not your booking")
		return
	}
	writeJSON(c, http.StatusOK, bookingView(b))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing booking id")
		return
	}
	b, err := h.booking.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeBookingError(c, err)
		return
	}
	if string(b.PassengerID) != middleware.CallerUID(c) {
		writeError(c, http.StatusForbidden, "not your booking")
		return
	}
	err = h.booking.Cancel(c.Request.Context(), booking.CancelCommand{
		BookingID: types.ID(id),
		ActorType: "passenger",
		Reason:    "user_cancel",
	})
	if err != nil {
		writeBookingError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": booking.StatusCancelled})
}

func callerHoldsBooking(c *gin.Context, b *booking.Booking) bool {
	return b.DriverID != nil && string(*b.DriverID) == middleware.CallerUID(c)
}

func bookingView(b *booking.Booking) map[string]any {
	dates := make([]string, len(b.TripDates))
	for i, d := range b.TripDates {
		dates[i] = d.Format("2006-01-02")
	}
	v := map[string]any{
		"booking_id":    b.ID,
		"passenger_id":  b.PassengerID,
		"status":        b.Status,
		"service":       b.Service,
		"vehicle_class": b.VehicleClass,
		"round_trip":    b.RoundTrip,
		"pickup":        map[string]float64{"lat": b.Pickup.Lat, "lng": b.Pickup.Lng},
		"dropoff":       map[string]float64{"lat": b.Dropoff.Lat, "lng": b.Dropoff.Lng},
		"distance_km":   b.DistanceKm,
		"trip_dates":    dates,
		"fare":          b.Fare.Amount,
		"currency":      b.Fare.Currency,
		"created_at":    b.CreatedAt.Format(time.RFC3339),
	}
	if b.DriverID != nil {
		v["driver_id"] = *b.DriverID
	}
	if b.AccountID != nil {
		v["account_id"] = *b.AccountID
	}
	if b.CancelReason != nil {
		v["cancel_reason"] = *b.CancelReason
	}
	return v
}
