package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/service"
)

type DepositsHandler struct {
	depositSvs DepositServicer
}

func NewDepositsHandler(depositSvs DepositServicer) *DepositsHandler {
	return &DepositsHandler{
		depositSvs: depositSvs,
	}
}

type CreateDepositParams struct {
	ProductID     string `json:"product_id" binding:"required,max_bytes=64"`
	DepositorName string `json:"depositor_name" binding:"required,max_bytes=100"`
	CouponCode    string `json:"coupon_code" binding:"omitempty,max_bytes=64"`
}

type DepositResponse struct {
	ID             int64                    `json:"id"`
	ProductID      string                   `json:"product_id"`
	DepositorName  string                   `json:"depositor_name"`
	Amount         int64                    `json:"amount"`
	OriginalAmount int64                    `json:"original_amount"`
	DiscountAmount int64                    `json:"discount_amount"`
	CreditsToGrant int64                    `json:"credits_to_grant"`
	Status         domain.RequestStatusType `json:"status"`
	AdminNote      *string                  `json:"admin_note,omitempty"`
	CreatedAt      string                   `json:"created_at"`
}

func newDepositResponse(request *domain.PaymentRequest) *DepositResponse {
	return &DepositResponse{
		ID:             request.ID,
		ProductID:      request.ProductID,
		DepositorName:  request.DepositorName,
		Amount:         request.Amount.IntPart(),
		OriginalAmount: request.OriginalAmount.IntPart(),
		DiscountAmount: request.DiscountAmount.IntPart(),
		CreditsToGrant: request.CreditsToGrant,
		Status:         request.Status,
		AdminNote:      request.AdminNote,
		CreatedAt:      request.CreatedAt.Format(time.RFC3339),
	}
}

// Create POST RouteGroup + DepositsRoute.
func (h *DepositsHandler) Create(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params CreateDepositParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	request, err := h.depositSvs.Submit(reqCtx, service.SubmitDepositArgs{
		AccountID:     currentAccountID,
		ProductID:     params.ProductID,
		DepositorName: params.DepositorName,
		CouponCode:    params.CouponCode,
	})
	if err != nil {
		abortDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newDepositResponse(request))
}

// Index GET RouteGroup + DepositsRoute.
func (h *DepositsHandler) Index(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	requests, err := h.depositSvs.GetByAccountID(reqCtx, currentAccountID)
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
