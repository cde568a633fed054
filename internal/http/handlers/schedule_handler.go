// README: Schedule handler: expand a recurrence pattern into trip dates.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lifti/internal/modules/schedule"
)

type ScheduleHandler struct {
	schedule *schedule.Service
}

func NewScheduleHandler(svc *schedule.Service) *ScheduleHandler {
	return &ScheduleHandler{schedule: svc}
}

type expandReq struct {
	Kind  string   `json:"kind"`
	Dates []string `json:"dates"`
	Month string   `json:"month"`
}

func (h *ScheduleHandler) Expand(c *gin.Context) {
	var req expandReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	pattern, err := parsePattern(req.Kind, req.Dates, req.Month)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	dates, err := h.schedule.Expand(pattern)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	writeJSON(c, http.StatusOK, map[string]any{"dates": out, "count": len(out)})
}

// parsePattern builds a schedule.Pattern from the wire shape shared by the
// expand endpoint and booking creation.
func parsePattern(kind string, dates []string, month string) (schedule.Pattern, error) {
	p := schedule.Pattern{Kind: schedule.Kind(kind)}
	switch p.Kind {
	case schedule.KindSpecificDates:
		for _, s := range dates {
			d, err := time.Parse("2006-01-02", s)
			if err != nil {
				return schedule.Pattern{}, schedule.ErrInvalidInput
			}
			p.Dates = append(p.Dates, d)
		}
	case schedule.KindWeekdays, schedule.KindWeekends:
		ym, err := schedule.ParseYearMonth(month)
		if err != nil {
			return schedule.Pattern{}, err
		}
		p.Month = ym
	default:
		return schedule.Pattern{}, schedule.ErrInvalidInput
	}
	return p, nil
}
