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

type AccountHandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	svcs    *testServices
	actorID string
	token   string
}

func (s *AccountHandlerTestSuite) SetupTest() {
	s.router, s.svcs = newTestRouter(s.T())
	s.actorID = uuid.NewString()
	s.token = authToken(s.T(), s.actorID)
}

func TestAccountHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}

func (s *AccountHandlerTestSuite) do(method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AccountHandlerTestSuite) TestCreateAccount() {
	body, _ := json.Marshal(gin.H{
		"reference":   "PROJ42",
		"name":        "Classroom Block",
		"accountType": "PROJECT",
	})

	s.svcs.account.On("CreateAccount", mock.Anything, mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
		return req.Reference == "PROJ42" && req.AccountType == domain.ProjectAccount
	}), s.actorID).Return(&domain.Account{
		AccountID:   uuid.NewString(),
		Reference:   "PROJ42",
		Name:        "Classroom Block",
		AccountType: domain.ProjectAccount,
		Status:      domain.AccountActive,
		Balance:     decimal.Zero,
	}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", body)

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("PROJ42", resp.Reference)
	s.Equal(domain.AccountActive, resp.Status)
	s.svcs.account.AssertExpectations(s.T())
}

func (s *AccountHandlerTestSuite) TestCreateAccountDuplicateReference() {
	body, _ := json.Marshal(gin.H{
		"reference":   "PROJ42",
		"name":        "Classroom Block",
		"accountType": "PROJECT",
	})

	s.svcs.account.On("CreateAccount", mock.Anything, mock.Anything, s.actorID).
		Return(nil, apperrors.ErrDuplicate).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", body)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *AccountHandlerTestSuite) TestCreateAccountRejectsBadType() {
	body, _ := json.Marshal(gin.H{
		"reference":   "PROJ42",
		"name":        "Classroom Block",
		"accountType": "SAVINGS",
	})

	w := s.do(http.MethodPost, "/api/v1/accounts", body)

	s.Equal(http.StatusBadRequest, w.Code)
	s.svcs.account.AssertNotCalled(s.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountHandlerTestSuite) TestGetAccountNotFound() {
	s.svcs.account.On("GetAccountByID", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/"+uuid.NewString(), nil)

	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AccountHandlerTestSuite) TestListAccounts() {
	s.svcs.account.On("ListAccounts", mock.Anything, 20, 0).
		Return([]domain.Account{
			{AccountID: uuid.NewString(), Reference: "PROJ42", Status: domain.AccountActive},
			{AccountID: uuid.NewString(), Reference: "OFFLINE", Status: domain.AccountActive},
		}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListAccountsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Accounts, 2)
}

func (s *AccountHandlerTestSuite) TestUpdateAccount() {
	accountID := uuid.NewString()
	newName := "Renamed Project"
	body, _ := json.Marshal(gin.H{"name": newName})

	s.svcs.account.On("UpdateAccount", mock.Anything, accountID, mock.MatchedBy(func(req dto.UpdateAccountRequest) bool {
		return req.Name != nil && *req.Name == newName && req.Status == nil
	}), s.actorID).Return(&domain.Account{
		AccountID: accountID,
		Reference: "PROJ42",
		Name:      newName,
		Status:    domain.AccountActive,
	}, nil).Once()

	w := s.do(http.MethodPut, "/api/v1/accounts/"+accountID, body)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.AccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(newName, resp.Name)
}

func (s *AccountHandlerTestSuite) TestDeactivateAccount() {
	accountID := uuid.NewString()
	s.svcs.account.On("DeactivateAccount", mock.Anything, accountID, s.actorID).Return(nil).Once()

	w := s.do(http.MethodDelete, "/api/v1/accounts/"+accountID, nil)

	s.Equal(http.StatusNoContent, w.Code)
	s.svcs.account.AssertExpectations(s.T())
}

func (s *AccountHandlerTestSuite) TestListAccountTransactionsPages() {
	accountID := uuid.NewString()
	s.svcs.statement.On("ListTransactions", mock.Anything, accountID, 2, "").
		Return([]domain.Transaction{
			{TransactionID: uuid.NewString(), AccountID: accountID, Direction: domain.Credit},
			{TransactionID: uuid.NewString(), AccountID: accountID, Direction: domain.Credit},
		}, "tok-2", nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/transactions?limit=2", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListTransactionsResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Transactions, 2)
	s.Equal("tok-2", resp.NextToken)
}

func (s *AccountHandlerTestSuite) TestGetStatement() {
	accountID := uuid.NewString()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	s.svcs.statement.On("Statement", mock.Anything, accountID, from, to).
		Return(&domain.AccountStatement{
			Account:        domain.Account{AccountID: accountID, Reference: "PROJ42"},
			From:           from,
			To:             to,
			OpeningBalance: decimal.NewFromInt(1000),
			ClosingBalance: decimal.NewFromInt(900),
			TotalCredits:   decimal.NewFromInt(500),
			TotalDebits:    decimal.NewFromInt(600),
		}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/statement?from=2026-08-01&to=2026-08-31", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.StatementResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.OpeningBalance.Equal(decimal.NewFromInt(1000)))
	s.True(resp.ClosingBalance.Equal(decimal.NewFromInt(900)))
}

func (s *AccountHandlerTestSuite) TestGetStatementRequiresPeriod() {
	w := s.do(http.MethodGet, "/api/v1/accounts/"+uuid.NewString()+"/statement", nil)

	s.Equal(http.StatusBadRequest, w.Code)
	s.svcs.statement.AssertNotCalled(s.T(), "Statement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AccountHandlerTestSuite) TestListAccountAudit() {
	accountID := uuid.NewString()
	s.svcs.audit.On("ListByEntity", mock.Anything, "account", accountID, 50, 0).
		Return([]domain.AuditLog{
			{AuditID: uuid.NewString(), EntityType: "account", EntityID: accountID, Action: "create"},
		}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/audit", nil)

	s.Equal(http.StatusOK, w.Code)
	var resp []dto.AuditLogResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp, 1)
	s.svcs.audit.AssertExpectations(s.T())
}

func (s *AccountHandlerTestSuite) TestGetTransaction() {
	transactionID := uuid.NewString()
	s.svcs.statement.On("GetTransactionByID", mock.Anything, transactionID).
		Return(&domain.Transaction{
			TransactionID: transactionID,
			ProviderRef:   "SBC12XY9QT",
			Amount:        decimal.NewFromInt(1500),
			Direction:     domain.Credit,
		}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/transactions/"+transactionID, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.TransactionResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("SBC12XY9QT", resp.ProviderRef)
}

func (s *AccountHandlerTestSuite) TestRejectsExpiredToken() {
	expired, err := authTokenWithExpiry(s.actorID, -time.Minute)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
}
