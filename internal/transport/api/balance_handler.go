package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bizforge/grantpay/internal/domain"
)

type BalanceHandler struct {
	ledgerSvs LedgerServicer
}

func NewBalanceHandler(ledgerSvs LedgerServicer) *BalanceHandler {
	return &BalanceHandler{
		ledgerSvs: ledgerSvs,
	}
}

type BalanceResponse struct {
	Credits      int64 `json:"credits"`
	HistoryTotal int64 `json:"history_total"`
}

func (h *BalanceHandler) Index(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, err := h.ledgerSvs.GetBalance(reqCtx, currentAccountID)
	if err != nil {
		abortDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, &BalanceResponse{
		Credits:      balance.Credits,
		HistoryTotal: balance.HistoryTotal,
	})
}

type HistoryResponseItem struct {
	Type        domain.EntryType `json:"type"`
	Amount      int64            `json:"amount"`
	Description string           `json:"description"`
	CreatedAt   string           `json:"created_at"`
}

func (h *BalanceHandler) History(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	entries, err := h.ledgerSvs.History(reqCtx, currentAccountID)
	if err != nil {
		abortDomainError(c, err)
		return
	}

	if len(entries) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]HistoryResponseItem, len(entries))
	for i, entry := range entries {
		response[i] = HistoryResponseItem{
			Type:        entry.Type,
			Amount:      entry.Amount,
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, response)
}
