// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifti/internal/modules/booking"
	"lifti/internal/modules/fare"
	"lifti/internal/modules/ledger"
	"lifti/internal/modules/location"
	"lifti/internal/modules/schedule"
)

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID ensures IDs are alphanumeric and at most 32 chars
// (matches the ID generator and Firebase UIDs).
func isValidID(v string) bool {
	if v == "" || len(v) > 32 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch err {
	case booking.ErrBadRequest, fare.ErrInvalidInput, fare.ErrUnsupportedService, schedule.ErrInvalidInput:
		writeError(c, http.StatusBadRequest, err.Error())
	case ledger.ErrAccountNotFound:
		writeError(c, http.StatusBadRequest, "unknown corporate account")
	case booking.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case booking.ErrInvalidState, booking.ErrActiveBooking, booking.ErrConflict:
		writeError(c, http.StatusConflict, err.Error())
	case ledger.ErrInsufficientCredit:
		writeError(c, http.StatusPaymentRequired, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeFareError(c *gin.Context, err error) {
	switch err {
	case fare.ErrInvalidInput, fare.ErrUnsupportedService:
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLedgerError(c *gin.Context, err error) {
	switch err {
	case ledger.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case ledger.ErrAccountNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case ledger.ErrInsufficientCredit:
		writeError(c, http.StatusPaymentRequired, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeLocationError(c *gin.Context, err error) {
	switch err {
	case location.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
