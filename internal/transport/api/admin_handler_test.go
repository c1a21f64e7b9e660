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

type AdminHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockDepositService *mocks.MockDepositServicer
	mockLedgerService  *mocks.MockLedgerServicer
	jwtSecret          []byte
	adminToken         string
	accountToken       string
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

func (s *AdminHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	defer mockCtrl.Finish()

	s.mockDepositService = mocks.NewMockDepositServicer(mockCtrl)
	s.mockLedgerService = mocks.NewMockLedgerServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	var err error
	s.router, err = New(RouterArgs{
		Logger:         logger.New(os.Stdout),
		DepositService: s.mockDepositService,
		LedgerService:  s.mockLedgerService,
		JWTSecretKey:   s.jwtSecret,
	})
	s.Require().NoError(err)

	s.adminToken, err = tokens.GenerateAccountJWT(1, true, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	s.accountToken, err = tokens.GenerateAccountJWT(2, false, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
}

func (s *AdminHandlerTestSuite) makeJSONRequest(method, url, jwtToken string, payload any) *http.Response {
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

// TestPendingDeposits доступ к админским роутам только с admin-токеном.
func (s *AdminHandlerTestSuite) TestPendingDeposits() {
	s.mockDepositService.EXPECT().GetPending(gomock.Any()).
		Return([]domain.PaymentRequest{{
			ID:             15,
			AccountID:      2,
			ProductID:      "starter",
			DepositorName:  "John Smith",
			Amount:         decimal.NewFromInt(19000),
			OriginalAmount: decimal.NewFromInt(19000),
			CreditsToGrant: 1,
			Status:         domain.RequestStatusPending,
		}}, nil).Times(1)

	cases := []struct {
		name       string
		jwtToken   string
		wantStatus int
	}{
		{name: "admin ok", jwtToken: s.adminToken, wantStatus: http.StatusOK},
		{name: "plain account forbidden", jwtToken: s.accountToken, wantStatus: http.StatusForbidden},
		{name: "not authorized", wantStatus: http.StatusUnauthorized},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			res := s.makeJSONRequest(http.MethodGet, RouteGroup+AdminDepositsRoute, t.jwtToken, nil)
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()
			s.Equal(t.wantStatus, res.StatusCode)
		})
	}
}

func (s *AdminHandlerTestSuite) TestApproveDeposit() {
	s.mockDepositService.EXPECT().
		Approve(gomock.Any(), service.ApproveDepositArgs{RequestID: 15}).
		Return(&service.ApprovedDeposit{
			Request: &domain.PaymentRequest{
				ID:     15,
				Status: domain.RequestStatusApproved,
				Amount: decimal.NewFromInt(19000),
			},
			NewBalance: 3,
		}, nil).Times(1)
	s.mockDepositService.EXPECT().
		Approve(gomock.Any(), service.ApproveDepositArgs{RequestID: 16}).
		Return(nil, domain.ErrAlreadyProcessed).Times(1)
	s.mockDepositService.EXPECT().
		Approve(gomock.Any(), service.ApproveDepositArgs{RequestID: 17}).
		Return(nil, domain.ErrRecordNotFound).Times(1)

	cases := []struct {
		name       string
		requestID  string
		jwtToken   string
		wantStatus int
	}{
		{name: "all ok", requestID: "15", jwtToken: s.adminToken, wantStatus: http.StatusOK},
		{name: "already processed", requestID: "16", jwtToken: s.adminToken, wantStatus: http.StatusConflict},
		{name: "unknown request", requestID: "17", jwtToken: s.adminToken, wantStatus: http.StatusNotFound},
		{name: "malformed id", requestID: "abc", jwtToken: s.adminToken, wantStatus: http.StatusBadRequest},
		{name: "plain account forbidden", requestID: "15", jwtToken: s.accountToken, wantStatus: http.StatusForbidden},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			url := fmt.Sprintf("%s%s/%s/approve", RouteGroup, AdminDepositsRoute, t.requestID)
			res := s.makeJSONRequest(http.MethodPost, url, t.jwtToken, ApproveDepositParams{})
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()
			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantStatus == http.StatusOK {
				var response ApproveDepositResponse
				s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
				s.Equal(int64(3), response.NewBalance)
				s.Equal(domain.RequestStatusApproved, response.Request.Status)
			}
		})
	}
}

func (s *AdminHandlerTestSuite) TestRejectDeposit() {
	note := "transfer never arrived"

	s.mockDepositService.EXPECT().
		Reject(gomock.Any(), service.RejectDepositArgs{RequestID: 15, AdminNote: &note}).
		Return(&domain.PaymentRequest{
			ID:        15,
			Status:    domain.RequestStatusRejected,
			AdminNote: &note,
			Amount:    decimal.NewFromInt(19000),
		}, nil).Times(1)

	url := fmt.Sprintf("%s%s/15/reject", RouteGroup, AdminDepositsRoute)
	res := s.makeJSONRequest(http.MethodPost, url, s.adminToken, RejectDepositParams{AdminNote: &note})
	defer func() {
		s.Require().NoError(res.Body.Close())
	}()

	s.Equal(http.StatusOK, res.StatusCode)

	var response DepositResponse
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
	s.Equal(domain.RequestStatusRejected, response.Status)
	s.Require().NotNil(response.AdminNote)
	s.Equal(note, *response.AdminNote)
}

func (s *AdminHandlerTestSuite) TestOverrideCredits() {
	s.mockLedgerService.EXPECT().
		SetCredits(gomock.Any(), int64(2), int64(10), "correction after support ticket").
		Return(int64(10), nil).Times(1)
	s.mockLedgerService.EXPECT().
		SetCredits(gomock.Any(), int64(2), int64(-1), gomock.Any()).
		Return(int64(0), domain.ErrInvalidAmount).Times(1)

	cases := []struct {
		name        string
		credits     int64
		description string
		wantStatus  int
	}{
		{
			name:        "all ok",
			credits:     10,
			description: "correction after support ticket",
			wantStatus:  http.StatusOK,
		}, {
			name:       "negative target",
			credits:    -1,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			url := fmt.Sprintf("%s%s/2/credits", RouteGroup, AdminAccountsRoute)
			res := s.makeJSONRequest(http.MethodPut, url, s.adminToken, OverrideCreditsParams{
				Credits:     t.credits,
				Description: t.description,
			})
			defer func() {
				s.Require().NoError(res.Body.Close())
			}()
			s.Equal(t.wantStatus, res.StatusCode)

			if t.wantStatus == http.StatusOK {
				var response OverrideCreditsResponse
				s.Require().NoError(json.NewDecoder(res.Body).Decode(&response))
				s.Equal(int64(2), response.AccountID)
				s.Equal(int64(10), response.Credits)
			}
		})
	}
}
