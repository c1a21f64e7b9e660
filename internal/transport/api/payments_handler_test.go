package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/bizforge/grantpay/internal/domain"
	"github.com/bizforge/grantpay/internal/logger"
	"github.com/bizforge/grantpay/internal/service"
	"github.com/bizforge/grantpay/internal/transport/api/mocks"
	"github.com/bizforge/grantpay/internal/transport/api/testutils"
	"github.com/bizforge/grantpay/internal/transport/api/tokens"
)

type PaymentsHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockPaymentService *mocks.MockPaymentServicer
	jwtSecret          []byte
}

func TestPaymentsHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentsHandlerTestSuite))
}

func (s *PaymentsHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	defer mockCtrl.Finish()

	s.mockPaymentService = mocks.NewMockPaymentServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	var err error
	s.router, err = New(RouterArgs{
		Logger:         logger.New(os.Stdout),
		PaymentService: s.mockPaymentService,
		JWTSecretKey:   s.jwtSecret,
	})
	s.Require().NoError(err)
}

func (s *PaymentsHandlerTestSuite) accountToken(accountID int64) string {
	token, err := tokens.GenerateAccountJWT(accountID, false, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	return token
}

func (s *PaymentsHandlerTestSuite) makeJSONRequest(method, url, jwtToken string, payload any) *http.Response {
	var body bytes.Buffer
	if payload != nil {
		s.Require().NoError(json.NewEncoder(&body).Encode(payload))
	}

	reqOpts := []func(*testutils.RequestOptions){
		testutils.WithHeader("Content-Type", "application/json; charset=utf-8"),
	}
	if jwtToken != "" {
		reqOpts = append(reqOpts, testutils.WithHeader("Authorization", fmt.Sprintf("Bearer %s", jwtToken)))
	}

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: method,
		URL:    url,
		Body:   &body,
	}, reqOpts...)
	s.Require().NoError(err)
	return res
}

func (s *PaymentsHandlerTestSuite) TestCreate() {
	var currentAccountID int64 = 1
	jwtToken := s.accountToken(currentAccountID)

	s.mockPaymentService.EXPECT().
		Create(gomock.Any(), service.CreatePaymentArgs{
			AccountID: currentAccountID,
			ProductID: "basic",
		}).
		Return(&domain.Payment{
			ID:             1,
			OrderID:        "order-001",
			AccountID:      currentAccountID,
			ProductID:      "basic",
			Amount:         decimal.NewFromInt(50000),
			OriginalAmount: decimal.NewFromInt(50000),
			CreditsToGrant: 3,
			Status:         domain.PaymentStatusPending,
		}, nil).Times(1)
	s.mockPaymentService.EXPECT().
		Create(gomock.Any(), service.CreatePaymentArgs{
			AccountID: currentAccountID,
			ProductID: "no-such",
		}).
		Return(nil, domain.ErrInvalidProduct).Times(1)
	s.mockPaymentService.EXPECT().
		Create(gomock.Any(), service.CreatePaymentArgs{
			AccountID:  currentAccountID,
			ProductID:  "basic",
			CouponCode: "DEAD",
		}).
		Return(nil, domain.NewCouponValidationError("DEAD", domain.CouponReasonExpired)).Times(1)

	cases := []struct {
		payload    any
		name       string
		jwtToken   string
		wantStatus int
	}{
		{
			name:       "all ok",
			payload:    CreatePaymentParams{ProductID: "basic"},
			jwtToken:   jwtToken,
			wantStatus: http.StatusCreated,
		}, {
			name:       "unknown product",
			payload:    CreatePaymentParams{ProductID: "no-such"},
			jwtToken:   jwtToken,
			wantStatus: http.StatusUnprocessableEntity,
		}, {
			name:       "expired coupon",
			payload:    CreatePaymentParams{ProductID: "basic", CouponCode: "DEAD"},
			jwtToken:   jwtToken,
			wantStatus: http.StatusUnprocessableEntity,
		}, {
			name:       "missing product id",
			payload:    CreatePaymentParams{},
			jwtToken:   jwtToken,
			wantStatus: http.StatusBadRequest,
		}, {
			name:       "not authorized",
			payload:    CreatePaymentParams{ProductID: "basic"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.makeJSONRequest(http.MethodPost, RouteGroup+PaymentsRoute, t.jwtToken, t.payload)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()
			s.Equal(t.wantStatus, res.StatusCode)
		})
	}
}

func (s *PaymentsHandlerTestSuite) TestConfirm() {
	var currentAccountID int64 = 1
	jwtToken := s.accountToken(currentAccountID)
	amount := decimal.NewFromInt(40000)

	okArgs := service.ConfirmPaymentArgs{
		AccountID:      currentAccountID,
		OrderID:        "order-001",
		TransactionRef: "bank-tx-001",
		Amount:         amount,
	}
	s.mockPaymentService.EXPECT().Confirm(gomock.Any(), okArgs).
		Return(&service.ConfirmedPayment{
			Payment: &domain.Payment{
				ID:      1,
				OrderID: okArgs.OrderID,
				Amount:  amount,
				Status:  domain.PaymentStatusCompleted,
			},
			NewBalance: 4,
		}, nil).Times(1)

	processedArgs := okArgs
	processedArgs.OrderID = "order-002"
	s.mockPaymentService.EXPECT().Confirm(gomock.Any(), processedArgs).
		Return(nil, domain.ErrAlreadyProcessed).Times(1)

	mismatchArgs := okArgs
	mismatchArgs.OrderID = "order-003"
	s.mockPaymentService.EXPECT().Confirm(gomock.Any(), mismatchArgs).
		Return(nil, domain.ErrAmountMismatch).Times(1)

	declinedArgs := okArgs
	declinedArgs.OrderID = "order-004"
	s.mockPaymentService.EXPECT().Confirm(gomock.Any(), declinedArgs).
		Return(nil, domain.ErrGatewayDeclined).Times(1)

	missingArgs := okArgs
	missingArgs.OrderID = "order-005"
	s.mockPaymentService.EXPECT().Confirm(gomock.Any(), missingArgs).
		Return(nil, domain.ErrRecordNotFound).Times(1)

	cases := []struct {
		name       string
		orderID    string
		wantStatus int
	}{
		{name: "all ok", orderID: "order-001", wantStatus: http.StatusOK},
		{name: "already processed", orderID: "order-002", wantStatus: http.StatusConflict},
		{name: "amount mismatch", orderID: "order-003", wantStatus: http.StatusUnprocessableEntity},
		{name: "gateway declined", orderID: "order-004", wantStatus: http.StatusPaymentRequired},
		{name: "unknown order", orderID: "order-005", wantStatus: http.StatusNotFound},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.makeJSONRequest(http.MethodPost, RouteGroup+PaymentsConfirmRoute, jwtToken, ConfirmPaymentParams{
				OrderID:        t.orderID,
				TransactionRef: "bank-tx-001",
				Amount:         amount,
			})
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()
			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantStatus == http.StatusOK {
				var response ConfirmPaymentResponse
				s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
				s.Equal(int64(4), response.NewBalance)
				s.Equal(domain.PaymentStatusCompleted, response.Payment.Status)
			}
		})
	}
}

func (s *PaymentsHandlerTestSuite) TestIndex() {
	var accountID int64 = 1
	var emptyAccountID int64 = 2

	s.mockPaymentService.EXPECT().GetByAccountID(gomock.Any(), accountID).
		Return([]domain.Payment{{
			ID:      1,
			OrderID: "order-001",
			Amount:  decimal.NewFromInt(50000),
			Status:  domain.PaymentStatusPending,
		}}, nil)
	s.mockPaymentService.EXPECT().GetByAccountID(gomock.Any(), emptyAccountID).
		Return([]domain.Payment{}, nil)

	cases := []struct {
		name       string
		jwtToken   string
		wantStatus int
	}{
		{name: "all ok", jwtToken: s.accountToken(accountID), wantStatus: http.StatusOK},
		{name: "no payments", jwtToken: s.accountToken(emptyAccountID), wantStatus: http.StatusNoContent},
		{name: "not authorized", wantStatus: http.StatusUnauthorized},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.makeJSONRequest(http.MethodGet, RouteGroup+PaymentsRoute, t.jwtToken, nil)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()
			s.Equal(t.wantStatus, res.StatusCode)
		})
	}
}
