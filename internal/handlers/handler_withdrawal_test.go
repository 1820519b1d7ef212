package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type WithdrawalHandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	svcs    *testServices
	actorID string
	token   string
}

func (s *WithdrawalHandlerTestSuite) SetupTest() {
	s.router, s.svcs = newTestRouter(s.T())
	s.actorID = uuid.NewString()
	s.token = authToken(s.T(), s.actorID)
}

func TestWithdrawalHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WithdrawalHandlerTestSuite))
}

func (s *WithdrawalHandlerTestSuite) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WithdrawalHandlerTestSuite) TestInitiateAccepted() {
	accountID := uuid.NewString()
	body, _ := json.Marshal(gin.H{
		"accountID": accountID,
		"amount":    "500.00",
		"phone":     "0712345678",
		"reason":    "BusinessPayment",
	})

	s.svcs.withdrawal.On("Initiate", mock.Anything, mock.MatchedBy(func(req dto.InitiateWithdrawalRequest) bool {
		return req.AccountID == accountID &&
			req.Amount.Equal(decimal.NewFromInt(500)) &&
			req.Phone == "0712345678" &&
			req.Reason == domain.BusinessPayment
	}), s.actorID).Return(&domain.Withdrawal{
		WithdrawalID:             uuid.NewString(),
		AccountID:                accountID,
		Amount:                   decimal.NewFromInt(500),
		Phone:                    "254712345678",
		Reason:                   domain.BusinessPayment,
		Status:                   domain.WithdrawalPending,
		ConversationID:           "AG_20260831_000012345",
		OriginatorConversationID: "wd-123",
		AuditFields:              domain.AuditFields{CreatedAt: time.Now()},
	}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/withdrawals", body)

	s.Equal(http.StatusAccepted, w.Code)
	var resp dto.WithdrawalResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(domain.WithdrawalPending, resp.Status)
	s.Equal("254712345678", resp.Phone)
	s.svcs.withdrawal.AssertExpectations(s.T())
}

func (s *WithdrawalHandlerTestSuite) TestInitiateRejectsBadPhone() {
	body, _ := json.Marshal(gin.H{
		"accountID": uuid.NewString(),
		"amount":    "500.00",
		"phone":     "12345",
		"reason":    "BusinessPayment",
	})

	w := s.do(http.MethodPost, "/api/v1/withdrawals", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.svcs.withdrawal.AssertNotCalled(s.T(), "Initiate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *WithdrawalHandlerTestSuite) TestInitiateRejectsUnknownReason() {
	body, _ := json.Marshal(gin.H{
		"accountID": uuid.NewString(),
		"amount":    "500.00",
		"phone":     "0712345678",
		"reason":    "GiftPayment",
	})

	w := s.do(http.MethodPost, "/api/v1/withdrawals", body)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *WithdrawalHandlerTestSuite) TestInitiateInsufficientBalance() {
	body, _ := json.Marshal(gin.H{
		"accountID": uuid.NewString(),
		"amount":    "500.00",
		"phone":     "0712345678",
		"reason":    "BusinessPayment",
	})

	s.svcs.withdrawal.On("Initiate", mock.Anything, mock.Anything, s.actorID).
		Return(nil, apperrors.NewAppError(http.StatusBadRequest, "amount exceeds available balance", apperrors.ErrValidation)).Once()

	w := s.do(http.MethodPost, "/api/v1/withdrawals", body)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *WithdrawalHandlerTestSuite) TestInitiateProviderRejection() {
	body, _ := json.Marshal(gin.H{
		"accountID": uuid.NewString(),
		"amount":    "500.00",
		"phone":     "0712345678",
		"reason":    "BusinessPayment",
	})

	s.svcs.withdrawal.On("Initiate", mock.Anything, mock.Anything, s.actorID).
		Return(nil, apperrors.ErrProviderSubmission).Once()

	w := s.do(http.MethodPost, "/api/v1/withdrawals", body)

	s.Equal(http.StatusBadGateway, w.Code)
}

func (s *WithdrawalHandlerTestSuite) TestInitiateRequiresAuth() {
	body, _ := json.Marshal(gin.H{
		"accountID": uuid.NewString(),
		"amount":    "500.00",
		"phone":     "0712345678",
		"reason":    "BusinessPayment",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
	s.svcs.withdrawal.AssertNotCalled(s.T(), "Initiate", mock.Anything, mock.Anything, mock.Anything)
}

func (s *WithdrawalHandlerTestSuite) TestGetWithdrawal() {
	withdrawalID := uuid.NewString()
	s.svcs.withdrawal.On("GetWithdrawalByID", mock.Anything, withdrawalID).
		Return(&domain.Withdrawal{
			WithdrawalID: withdrawalID,
			Status:       domain.WithdrawalCompleted,
			Amount:       decimal.NewFromInt(500),
		}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/withdrawals/"+withdrawalID, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.WithdrawalResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(withdrawalID, resp.WithdrawalID)
	s.Equal(domain.WithdrawalCompleted, resp.Status)
}

func (s *WithdrawalHandlerTestSuite) TestGetWithdrawalNotFound() {
	s.svcs.withdrawal.On("GetWithdrawalByID", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.do(http.MethodGet, "/api/v1/withdrawals/"+uuid.NewString(), nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *WithdrawalHandlerTestSuite) TestListWithdrawalsFiltersByAccount() {
	accountID := uuid.NewString()
	s.svcs.withdrawal.On("ListWithdrawals", mock.Anything, accountID, 5, 10).
		Return([]domain.Withdrawal{
			{WithdrawalID: uuid.NewString(), AccountID: accountID, Status: domain.WithdrawalPending},
		}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/withdrawals?accountID="+accountID+"&limit=5&offset=10", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp []dto.WithdrawalResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp, 1)
	s.svcs.withdrawal.AssertExpectations(s.T())
}

func (s *WithdrawalHandlerTestSuite) TestCancelWithdrawal() {
	withdrawalID := uuid.NewString()
	s.svcs.withdrawal.On("Cancel", mock.Anything, withdrawalID, s.actorID).Return(nil).Once()

	w := s.do(http.MethodPost, "/api/v1/withdrawals/"+withdrawalID+"/cancel", nil)

	s.Equal(http.StatusNoContent, w.Code)
	s.svcs.withdrawal.AssertExpectations(s.T())
}

func (s *WithdrawalHandlerTestSuite) TestCancelPendingConflicts() {
	s.svcs.withdrawal.On("Cancel", mock.Anything, mock.Anything, s.actorID).
		Return(apperrors.ErrInvalidTransition).Once()

	w := s.do(http.MethodPost, "/api/v1/withdrawals/"+uuid.NewString()+"/cancel", nil)

	s.Equal(http.StatusConflict, w.Code)
}
