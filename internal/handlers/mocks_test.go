package handlers_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/ChangoHQ/chango_backend/internal/handlers"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/ChangoHQ/chango_backend/internal/platform/config"
	"github.com/ChangoHQ/chango_backend/internal/platform/validation"
	"github.com/ChangoHQ/chango_backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret      = "handler-test-secret"
	testCallbackSecret = "cb-secret-123"
)

// --- Mock ReconciliationService ---
type MockReconciliationService struct {
	mock.Mock
}

var _ portssvc.ReconciliationSvcFacade = (*MockReconciliationService)(nil)

func (m *MockReconciliationService) Reconcile(ctx context.Context, event domain.PaymentEvent) (*domain.PostingResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PostingResult), args.Error(1)
}

// --- Mock WithdrawalService ---
type MockWithdrawalService struct {
	mock.Mock
}

var _ portssvc.WithdrawalSvcFacade = (*MockWithdrawalService)(nil)

func (m *MockWithdrawalService) Initiate(ctx context.Context, req dto.InitiateWithdrawalRequest, actorID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) ApplyResult(ctx context.Context, conversationID string, resultCode int, resultDesc string, providerRef string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, conversationID, resultCode, resultDesc, providerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) ApplyTimeout(ctx context.Context, conversationID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) Cancel(ctx context.Context, withdrawalID string, actorID string) error {
	args := m.Called(ctx, withdrawalID, actorID)
	return args.Error(0)
}

func (m *MockWithdrawalService) GetWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalService) ListWithdrawals(ctx context.Context, accountID string, limit int, offset int) ([]domain.Withdrawal, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Withdrawal), args.Error(1)
}

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByReference(ctx context.Context, reference string) (*domain.Account, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string, actorID string) error {
	args := m.Called(ctx, accountID, actorID)
	return args.Error(0)
}

// --- Mock StatementService ---
type MockStatementService struct {
	mock.Mock
}

var _ portssvc.StatementSvcFacade = (*MockStatementService)(nil)

func (m *MockStatementService) ListTransactions(ctx context.Context, accountID string, limit int, nextToken string) ([]domain.Transaction, string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.String(1), args.Error(2)
}

func (m *MockStatementService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockStatementService) Statement(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountStatement, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountStatement), args.Error(1)
}

// --- Mock AuditService ---
type MockAuditService struct {
	mock.Mock
}

var _ portssvc.AuditSvcFacade = (*MockAuditService)(nil)

func (m *MockAuditService) ListByEntity(ctx context.Context, entityType, entityID string, limit int, offset int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// --- Mock AuthService ---
type MockAuthService struct {
	mock.Mock
}

var _ portssvc.AuthSvcFacade = (*MockAuthService)(nil)

func (m *MockAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.LoginResponse), args.Error(1)
}

func (m *MockAuthService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// testServices bundles all service mocks behind one container.
type testServices struct {
	reconciliation *MockReconciliationService
	withdrawal     *MockWithdrawalService
	account        *MockAccountService
	statement      *MockStatementService
	audit          *MockAuditService
	auth           *MockAuthService
}

// newTestRouter builds a gin engine with the full route surface wired to
// mocks. Swagger stays off via IsProduction.
func newTestRouter(t *testing.T) (*gin.Engine, *testServices) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterCustomValidators())

	svcs := &testServices{
		reconciliation: new(MockReconciliationService),
		withdrawal:     new(MockWithdrawalService),
		account:        new(MockAccountService),
		statement:      new(MockStatementService),
		audit:          new(MockAuditService),
		auth:           new(MockAuthService),
	}

	container := &portssvc.ServiceContainer{
		Reconciliation: svcs.reconciliation,
		Withdrawal:     svcs.withdrawal,
		Account:        svcs.account,
		Statement:      svcs.statement,
		Audit:          svcs.audit,
		Auth:           svcs.auth,
	}

	cfg := &config.Config{
		IsProduction:   true,
		JWTSecret:      testJWTSecret,
		CallbackSecret: testCallbackSecret,
	}

	router := gin.New()
	router.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	handlers.RegisterRoutes(router, cfg, container)
	return router, svcs
}

// assertableErr builds an opaque error for failure-path expectations.
func assertableErr(msg string) error {
	return errors.New(msg)
}

// authToken issues a bearer token accepted by the test router.
func authToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, testJWTSecret, time.Hour, "chango-backend")
	require.NoError(t, err)
	return token
}

func authTokenWithExpiry(userID string, expiry time.Duration) (string, error) {
	return utils.GenerateJWT(userID, testJWTSecret, expiry, "chango-backend")
}
