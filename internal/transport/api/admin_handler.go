package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bizforge/grantpay/internal/service"
)

type AdminHandler struct {
	depositSvs DepositServicer
	ledgerSvs  LedgerServicer
}

func NewAdminHandler(depositSvs DepositServicer, ledgerSvs LedgerServicer) *AdminHandler {
	return &AdminHandler{
		depositSvs: depositSvs,
		ledgerSvs:  ledgerSvs,
	}
}

// PendingDeposits GET RouteGroup + AdminDepositsRoute.
func (h *AdminHandler) PendingDeposits(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	requests, err := h.depositSvs.GetPending(reqCtx)
	if err != nil {
		abortDomainError(c, err)
		return
	}

	if len(requests) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]*DepositResponse, len(requests))
	for i := range requests {
		response[i] = newDepositResponse(&requests[i])
	}

	c.JSON(http.StatusOK, response)
}

type ApproveDepositParams struct {
	CreditsOverride *int64  `json:"credits_override"`
	AdminNote       *string `json:"admin_note" binding:"omitempty,max_bytes=500"`
}

type ApproveDepositResponse struct {
	Request    *DepositResponse `json:"request"`
	NewBalance int64            `json:"new_balance"`
}

// ApproveDeposit POST RouteGroup + AdminDepositsRoute + "/:id/approve".
func (h *AdminHandler) ApproveDeposit(c *gin.Context) {
	requestID, err := parseIDParam(c)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var params ApproveDepositParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	approved, approveErr := h.depositSvs.Approve(reqCtx, service.ApproveDepositArgs{
		RequestID:       requestID,
		CreditsOverride: params.CreditsOverride,
		AdminNote:       params.AdminNote,
	})
	if approveErr != nil {
		abortDomainError(c, approveErr)
		return
	}

	c.JSON(http.StatusOK, &ApproveDepositResponse{
		Request:    newDepositResponse(approved.Request),
		NewBalance: approved.NewBalance,
	})
}

type RejectDepositParams struct {
	AdminNote *string `json:"admin_note" binding:"omitempty,max_bytes=500"`
}

// RejectDeposit POST RouteGroup + AdminDepositsRoute + "/:id/reject".
func (h *AdminHandler) RejectDeposit(c *gin.Context) {
	requestID, err := parseIDParam(c)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var params RejectDepositParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	request, rejectErr := h.depositSvs.Reject(reqCtx, service.RejectDepositArgs{
		RequestID: requestID,
		AdminNote: params.AdminNote,
	})
	if rejectErr != nil {
		abortDomainError(c, rejectErr)
		return
	}

	c.JSON(http.StatusOK, newDepositResponse(request))
}

type OverrideCreditsParams struct {
	Credits     int64  `json:"credits"`
	Description string `json:"description" binding:"omitempty,max_bytes=500"`
}

type OverrideCreditsResponse struct {
	AccountID int64 `json:"account_id"`
	Credits   int64 `json:"credits"`
}

// OverrideCredits PUT RouteGroup + AdminAccountsRoute + "/:id/credits".
// Устанавливает абсолютное значение баланса, разница фиксируется записью в истории.
func (h *AdminHandler) OverrideCredits(c *gin.Context) {
	accountID, err := parseIDParam(c)
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var params OverrideCreditsParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	description := params.Description
	if description == "" {
		description = "admin credit override"
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	newBalance, setErr := h.ledgerSvs.SetCredits(reqCtx, accountID, params.Credits, description)
	if setErr != nil {
		abortDomainError(c, setErr)
		return
	}

	c.JSON(http.StatusOK, &OverrideCreditsResponse{
		AccountID: accountID,
		Credits:   newBalance,
	})
}

func parseIDParam(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64) //nolint:wrapcheck
}
