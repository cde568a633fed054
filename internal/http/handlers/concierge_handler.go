// README: Concierge handler: free-text errand requests to priced plans.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/modules/quota"
	"lifti/internal/service"
	"lifti/internal/types"
)

type ConciergeHandler struct {
	planner *service.ErrandPlanner
}

func NewConciergeHandler(planner *service.ErrandPlanner) *ConciergeHandler {
	return &ConciergeHandler{planner: planner}
}

type errandReq struct {
	Message  string `json:"message"`
	Location string `json:"location"`
}

func (h *ConciergeHandler) Plan(c *gin.Context) {
	var req errandReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}
	uid := types.ID(middleware.CallerUID(c))
	plan, err := h.planner.Plan(c.Request.Context(), uid, req.Message, req.Location)
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExhausted) {
			writeError(c, http.StatusTooManyRequests, "monthly concierge quota exhausted")
			return
		}
		writeError(c, http.StatusBadGateway, "errand planning failed")
		return
	}

	resp := map[string]any{
		"reply":               plan.Reply,
		"needs_clarification": plan.NeedsClarification,
	}
	if !plan.NeedsClarification {
		stops := make([]map[string]any, len(plan.Stops))
		for i, s := range plan.Stops {
			options := make([]map[string]any, len(s.Options))
			for j, o := range s.Options {
				options[j] = map[string]any{
					"name":    o.Name,
					"address": o.Address,
					"rating":  o.Rating,
				}
			}
			stops[i] = map[string]any{
				"task":    s.Task.Description,
				"options": options,
			}
		}
		resp["stops"] = stops
		resp["origin"] = plan.Origin
		resp["dropoff"] = plan.Dropoff
		resp["round_trip"] = plan.RoundTrip
		resp["distance_km"] = plan.Estimate.DistanceKm
		if plan.Quote != nil {
			resp["fare_total"] = plan.Quote.Total
			resp["fare_currency"] = plan.Quote.Currency
		}
	}
	writeJSON(c, http.StatusOK, resp)
}
