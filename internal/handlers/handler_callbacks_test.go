package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CallbackHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	svcs   *testServices
}

func (s *CallbackHandlerTestSuite) SetupTest() {
	s.router, s.svcs = newTestRouter(s.T())
}

func TestCallbackHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CallbackHandlerTestSuite))
}

func (s *CallbackHandlerTestSuite) postCallback(path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/callbacks/%s%s", testCallbackSecret, path), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *CallbackHandlerTestSuite) decodeCallbackResponse(w *httptest.ResponseRecorder) dto.CallbackResponse {
	var resp dto.CallbackResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func c2bBody() []byte {
	return []byte(`{
		"TransactionType": "Pay Bill",
		"TransID": "SBC12XY9QT",
		"TransTime": "20260831142233",
		"TransAmount": "1500.00",
		"BusinessShortCode": "600999",
		"BillRefNumber": "PROJ42",
		"OrgAccountBalance": "87500.00",
		"MSISDN": "254712345678",
		"FirstName": "Wanjiku",
		"LastName": "Mwangi"
	}`)
}

func (s *CallbackHandlerTestSuite) TestC2BConfirmationPostsPayment() {
	s.svcs.reconciliation.On("Reconcile", mock.Anything, mock.MatchedBy(func(e domain.PaymentEvent) bool {
		return e.ProviderRef == "SBC12XY9QT" &&
			e.Reference == "PROJ42" &&
			e.Amount.Equal(decimal.NewFromInt(1500)) &&
			e.PayerName == "Wanjiku Mwangi" &&
			len(e.Raw) > 0
	})).Return(&domain.PostingResult{
		AccountID:     "acc-1",
		TransactionID: "txn-1",
		NewBalance:    decimal.NewFromInt(1500),
	}, nil).Once()

	w := s.postCallback("/c2b/confirmation", c2bBody())

	s.Equal(http.StatusOK, w.Code)
	resp := s.decodeCallbackResponse(w)
	s.Equal("success", resp.Status)
	s.Equal("accepted", resp.Message)
	s.svcs.reconciliation.AssertExpectations(s.T())
}

func (s *CallbackHandlerTestSuite) TestC2BConfirmationReplayAcknowledged() {
	s.svcs.reconciliation.On("Reconcile", mock.Anything, mock.Anything).
		Return(&domain.PostingResult{Duplicate: true, TransactionID: "txn-1"}, nil).Once()

	w := s.postCallback("/c2b/confirmation", c2bBody())

	s.Equal(http.StatusOK, w.Code)
	resp := s.decodeCallbackResponse(w)
	s.Equal("success", resp.Status)
	s.Equal("already processed", resp.Message)
}

func (s *CallbackHandlerTestSuite) TestC2BConfirmationMalformedJSON() {
	w := s.postCallback("/c2b/confirmation", []byte(`{not json`))

	s.Equal(http.StatusBadRequest, w.Code)
	s.svcs.reconciliation.AssertNotCalled(s.T(), "Reconcile", mock.Anything, mock.Anything)
}

func (s *CallbackHandlerTestSuite) TestC2BConfirmationUnparseableAmount() {
	body := []byte(`{"TransID": "SBC12XY9QT", "TransAmount": "abc"}`)

	w := s.postCallback("/c2b/confirmation", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.svcs.reconciliation.AssertNotCalled(s.T(), "Reconcile", mock.Anything, mock.Anything)
}

func (s *CallbackHandlerTestSuite) TestC2BConfirmationInvalidEventRejected() {
	s.svcs.reconciliation.On("Reconcile", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrInvalidEvent).Once()

	w := s.postCallback("/c2b/confirmation", c2bBody())

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *CallbackHandlerTestSuite) TestC2BConfirmationPostingFailureAsksForRetry() {
	s.svcs.reconciliation.On("Reconcile", mock.Anything, mock.Anything).
		Return(nil, assertableErr("db down")).Once()

	w := s.postCallback("/c2b/confirmation", c2bBody())

	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *CallbackHandlerTestSuite) TestCallbackWrongSecretForbidden() {
	req := httptest.NewRequest(http.MethodPost, "/callbacks/wrong-secret/c2b/confirmation", bytes.NewReader(c2bBody()))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusForbidden, w.Code)
	s.svcs.reconciliation.AssertNotCalled(s.T(), "Reconcile", mock.Anything, mock.Anything)
}

func b2cResultBody(resultCode int) []byte {
	return []byte(fmt.Sprintf(`{
		"Result": {
			"ResultType": 0,
			"ResultCode": %d,
			"ResultDesc": "The service request is processed successfully.",
			"OriginatorConversationID": "wd-123",
			"ConversationID": "AG_20260831_000012345",
			"TransactionID": "SBC99ZZ1AA"
		}
	}`, resultCode))
}

func (s *CallbackHandlerTestSuite) TestB2CResultSettlesWithdrawal() {
	s.svcs.withdrawal.On("ApplyResult", mock.Anything,
		"AG_20260831_000012345", 0, "The service request is processed successfully.", "SBC99ZZ1AA").
		Return(&domain.Withdrawal{WithdrawalID: "wd-123", Status: domain.WithdrawalCompleted}, nil).Once()

	w := s.postCallback("/b2c/result", b2cResultBody(0))

	s.Equal(http.StatusOK, w.Code)
	resp := s.decodeCallbackResponse(w)
	s.Equal("accepted", resp.Message)
	s.svcs.withdrawal.AssertExpectations(s.T())
}

func (s *CallbackHandlerTestSuite) TestB2CResultUnknownConversationAcknowledged() {
	s.svcs.withdrawal.On("ApplyResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.postCallback("/b2c/result", b2cResultBody(0))

	// Ack so the provider stops retrying something we can never match.
	s.Equal(http.StatusOK, w.Code)
	resp := s.decodeCallbackResponse(w)
	s.Equal("unknown conversation", resp.Message)
}

func (s *CallbackHandlerTestSuite) TestB2CResultMissingConversationIDRejected() {
	w := s.postCallback("/b2c/result", []byte(`{"Result": {"ResultCode": 0}}`))

	s.Equal(http.StatusBadRequest, w.Code)
	s.svcs.withdrawal.AssertNotCalled(s.T(), "ApplyResult",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *CallbackHandlerTestSuite) TestB2CResultProcessingFailureAsksForRetry() {
	s.svcs.withdrawal.On("ApplyResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assertableErr("db down")).Once()

	w := s.postCallback("/b2c/result", b2cResultBody(0))

	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *CallbackHandlerTestSuite) TestB2CTimeoutFailsWithdrawal() {
	s.svcs.withdrawal.On("ApplyTimeout", mock.Anything, "AG_20260831_000012345").
		Return(&domain.Withdrawal{WithdrawalID: "wd-123", Status: domain.WithdrawalFailed}, nil).Once()

	w := s.postCallback("/b2c/timeout", b2cResultBody(0))

	s.Equal(http.StatusOK, w.Code)
	s.svcs.withdrawal.AssertExpectations(s.T())
}

func (s *CallbackHandlerTestSuite) TestB2CTimeoutUnknownConversationAcknowledged() {
	s.svcs.withdrawal.On("ApplyTimeout", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.postCallback("/b2c/timeout", b2cResultBody(0))

	s.Equal(http.StatusOK, w.Code)
	resp := s.decodeCallbackResponse(w)
	s.Equal("unknown conversation", resp.Message)
}
