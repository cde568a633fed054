// README: Ledger handlers: corporate account balance and credit top-ups.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifti/internal/http/middleware"
	"lifti/internal/modules/ledger"
	"lifti/internal/types"
)

type LedgerHandler struct {
	ledger *ledger.Service
}

func NewLedgerHandler(svc *ledger.Service) *LedgerHandler {
	return &LedgerHandler{ledger: svc}
}

// requireFinanceAdmin gates ledger mutations to finance_admin tokens.
func requireFinanceAdmin(c *gin.Context) bool {
	if middleware.CallerRole(c) != "finance_admin" {
		writeError(c, http.StatusForbidden, "finance_admin role required")
		return false
	}
	return true
}

func (h *LedgerHandler) Balance(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing account id")
		return
	}
	summary, err := h.ledger.Balance(c.Request.Context(), types.ID(id))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"account_id":   summary.AccountID,
		"credit_limit": summary.CreditLimit,
		"spent":        summary.Spent,
		"available":    summary.Available,
		"low_balance":  summary.LowBalance,
	})
}

type creditReq struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Note     string `json:"note"`
}

func (h *LedgerHandler) Credit(c *gin.Context) {
	if !requireFinanceAdmin(c) {
		return
	}
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "missing account id")
		return
	}
	var req creditReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	amount := types.Money{Amount: req.Amount, Currency: req.Currency}
	if err := h.ledger.RecordCredit(c.Request.Context(), types.ID(id), amount, req.Note); err != nil {
		writeLedgerError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"status": "credited"})
}
