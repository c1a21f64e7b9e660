package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/service"
)

type PaymentsHandler struct {
	paymentSvs PaymentServicer
}

func NewPaymentsHandler(paymentSvs PaymentServicer) *PaymentsHandler {
	return &PaymentsHandler{
		paymentSvs: paymentSvs,
	}
}

type CreatePaymentParams struct {
	ProductID  string `json:"product_id" binding:"required,max_bytes=64"`
	CouponCode string `json:"coupon_code" binding:"omitempty,max_bytes=64"`
}

type PaymentResponse struct {
	OrderID        string                   `json:"order_id"`
	ProductID      string                   `json:"product_id"`
	Amount         int64                    `json:"amount"`
	OriginalAmount int64                    `json:"original_amount"`
	DiscountAmount int64                    `json:"discount_amount"`
	CreditsToGrant int64                    `json:"credits_to_grant"`
	Status         domain.PaymentStatusType `json:"status"`
	PaymentMethod  string                   `json:"payment_method,omitempty"`
	CreatedAt      string                   `json:"created_at"`
}

func newPaymentResponse(payment *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		OrderID:        payment.OrderID,
		ProductID:      payment.ProductID,
		Amount:         payment.Amount.IntPart(),
		OriginalAmount: payment.OriginalAmount.IntPart(),
		DiscountAmount: payment.DiscountAmount.IntPart(),
		CreditsToGrant: payment.CreditsToGrant,
		Status:         payment.Status,
		PaymentMethod:  payment.PaymentMethod,
		CreatedAt:      payment.CreatedAt.Format(time.RFC3339),
	}
}

// Create POST RouteGroup + PaymentsRoute.
func (h *PaymentsHandler) Create(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params CreatePaymentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	payment, err := h.paymentSvs.Create(reqCtx, service.CreatePaymentArgs{
		AccountID:  currentAccountID,
		ProductID:  params.ProductID,
		CouponCode: params.CouponCode,
	})
	if err != nil {
		abortDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPaymentResponse(payment))
}

type ConfirmPaymentParams struct {
	OrderID        string          `json:"order_id" binding:"required,max_bytes=64"`
	TransactionRef string          `json:"transaction_ref" binding:"required,max_bytes=128"`
	Amount         decimal.Decimal `json:"amount"`
}

type ConfirmPaymentResponse struct {
	Payment    *PaymentResponse `json:"payment"`
	NewBalance int64            `json:"new_balance"`
}

// Confirm POST RouteGroup + PaymentsConfirmRoute.
// Повторное подтверждение завершенного платежа вернет 409 без изменения баланса.
func (h *PaymentsHandler) Confirm(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params ConfirmPaymentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	confirmed, err := h.paymentSvs.Confirm(reqCtx, service.ConfirmPaymentArgs{
		AccountID:      currentAccountID,
		OrderID:        params.OrderID,
		TransactionRef: params.TransactionRef,
		Amount:         params.Amount,
	})
	if err != nil {
		abortDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, &ConfirmPaymentResponse{
		Payment:    newPaymentResponse(confirmed.Payment),
		NewBalance: confirmed.NewBalance,
	})
}

// Index GET RouteGroup + PaymentsRoute.
func (h *PaymentsHandler) Index(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	payments, err := h.paymentSvs.GetByAccountID(reqCtx, currentAccountID)
	if err != nil {
		abortDomainError(c, err)
		return
	}

	if len(payments) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]*PaymentResponse, len(payments))
	for i := range payments {
		response[i] = newPaymentResponse(&payments[i])
	}

	c.JSON(http.StatusOK, response)
}
