package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/transport/api/middlewares"
)

func getAccountIDFromContext(c *gin.Context) int64 {
	return c.GetInt64(middlewares.CurrentAccountIDKey)
}

// abortDomainError единое соответствие бизнес-ошибок http статусам. Все перечисленные
// ошибки восстановимы на стороне клиента; остальное уходит приватной 500.
func abortDomainError(c *gin.Context, err error) {
	var couponErr *domain.CouponValidationError
	if errors.As(err, &couponErr) {
		_ = c.AbortWithError(http.StatusUnprocessableEntity, couponErr).SetType(gin.ErrorTypePublic)
		return
	}

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		c.AbortWithStatus(http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyProcessed):
		_ = c.AbortWithError(http.StatusConflict, domain.ErrAlreadyProcessed).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrInsufficientCredits):
		_ = c.AbortWithError(http.StatusPaymentRequired, domain.ErrInsufficientCredits).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrGatewayDeclined):
		_ = c.AbortWithError(http.StatusPaymentRequired, domain.ErrGatewayDeclined).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrAmountMismatch):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, domain.ErrAmountMismatch).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrBelowMinimum):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, domain.ErrBelowMinimum).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrInvalidProduct):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, domain.ErrInvalidProduct).SetType(gin.ErrorTypePublic)
	case errors.Is(err, domain.ErrInvalidAmount):
		_ = c.AbortWithError(http.StatusUnprocessableEntity, domain.ErrInvalidAmount).SetType(gin.ErrorTypePublic)
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}
