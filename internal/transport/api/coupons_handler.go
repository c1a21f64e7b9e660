package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type CouponsHandler struct {
	couponSvs CouponServicer
}

func NewCouponsHandler(couponSvs CouponServicer) *CouponsHandler {
	return &CouponsHandler{
		couponSvs: couponSvs,
	}
}

type ValidateCouponParams struct {
	Code string `json:"code" binding:"required,max_bytes=64"`
}

type CouponResponse struct {
	Code           string    `json:"code"`
	DiscountAmount int64     `json:"discount_amount"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Validate POST RouteGroup + CouponsValidateRoute.
// Проверка купона без списания использования, отказ всегда с кодом причины.
func (h *CouponsHandler) Validate(c *gin.Context) {
	var params ValidateCouponParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	coupon, err := h.couponSvs.Validate(reqCtx, params.Code)
	if err != nil {
		abortDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, &CouponResponse{
		Code:           coupon.Code,
		DiscountAmount: coupon.DiscountAmount.IntPart(),
		ExpiresAt:      coupon.ExpiresAt,
	})
}
