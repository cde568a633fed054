// README: Quote handler: price a trip before booking it.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifti/internal/maps"
	"lifti/internal/modules/fare"
)

// Router estimates the driving route between two addresses. Satisfied by
// *maps.RouteService; nil disables address-based quoting.
type Router interface {
	Estimate(ctx context.Context, origin, destination string, waypoints ...string) (maps.RouteEstimate, error)
}

type QuoteHandler struct {
	fare   *fare.Service
	router Router
}

func NewQuoteHandler(svc *fare.Service, router Router) *QuoteHandler {
	return &QuoteHandler{fare: svc, router: router}
}

type quoteReq struct {
	Service        string  `json:"service"`
	DistanceKm     float64 `json:"distance_km"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffAddress string  `json:"dropoff_address"`
	VehicleClass   string  `json:"vehicle_class"`
	PackageSize    string  `json:"package_size"`
	RoundTrip      bool    `json:"round_trip"`
	Trips          int     `json:"trips"`
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Service == "" {
		writeError(c, http.StatusBadRequest, "missing service")
		return
	}
	if req.Trips == 0 {
		req.Trips = 1
	}

	distance := req.DistanceKm
	if distance == 0 && req.PickupAddress != "" && req.DropoffAddress != "" {
		if h.router == nil {
			writeError(c, http.StatusBadRequest, "address routing unavailable, supply distance_km")
			return
		}
		est, err := h.router.Estimate(c.Request.Context(), req.PickupAddress, req.DropoffAddress)
		if err != nil {
			writeError(c, http.StatusBadGateway, "route estimate failed")
			return
		}
		distance = est.DistanceKm
	}

	breakdown, err := h.fare.Quote(fare.Request{
		DistanceKm:   distance,
		Service:      fare.ServiceType(req.Service),
		VehicleClass: fare.VehicleClass(req.VehicleClass),
		PackageSize:  fare.PackageSize(req.PackageSize),
		RoundTrip:    req.RoundTrip,
		Trips:        req.Trips,
	})
	if err != nil {
		writeFareError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"base_fare":       breakdown.BaseFare,
		"distance_charge": breakdown.DistanceCharge,
		"surcharges":      breakdown.Surcharges,
		"total":           breakdown.Total,
		"trips":           breakdown.Trips,
		"currency":        breakdown.Currency,
		"distance_km":     distance,
	})
}
