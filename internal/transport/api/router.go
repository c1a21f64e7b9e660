package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bizforge/grantpay/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup           = "/api"
	CouponsValidateRoute = "/coupons/validate"
	BalanceRoute         = "/balance"
	BalanceHistoryRoute  = "/balance/history"
	PaymentsRoute        = "/payments"
	PaymentsConfirmRoute = "/payments/confirm"
	DepositsRoute        = "/deposits"
	AdminDepositsRoute   = "/admin/deposits"
	AdminAccountsRoute   = "/admin/accounts"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	LedgerService  LedgerServicer
	CouponService  CouponServicer
	PaymentService PaymentServicer
	DepositService DepositServicer
	JWTSecretKey   []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("router init: %s", err.Error())
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	balanceHandler := NewBalanceHandler(args.LedgerService)
	couponsHandler := NewCouponsHandler(args.CouponService)
	paymentsHandler := NewPaymentsHandler(args.PaymentService)
	depositsHandler := NewDepositsHandler(args.DepositService)
	adminHandler := NewAdminHandler(args.DepositService, args.LedgerService)

	api := r.Group(RouteGroup)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованный аккаунт.
	api.POST(CouponsValidateRoute, couponsHandler.Validate)

	api.GET(BalanceRoute, balanceHandler.Index)
	api.GET(BalanceHistoryRoute, balanceHandler.History)

	api.POST(PaymentsRoute, paymentsHandler.Create)
	api.POST(PaymentsConfirmRoute, paymentsHandler.Confirm)
	api.GET(PaymentsRoute, paymentsHandler.Index)

	api.POST(DepositsRoute, depositsHandler.Create)
	api.GET(DepositsRoute, depositsHandler.Index)

	admin := api.Group("", middlewares.AdminRequired())
	admin.GET(AdminDepositsRoute, adminHandler.PendingDeposits)
	admin.POST(AdminDepositsRoute+"/:id/approve", adminHandler.ApproveDeposit)
	admin.POST(AdminDepositsRoute+"/:id/reject", adminHandler.RejectDeposit)
	admin.PUT(AdminAccountsRoute+"/:id/credits", adminHandler.OverrideCredits)
	return r, nil
}
