package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByReference(ctx context.Context, reference string) (*domain.Account, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

func (m *MockAccountRepository) CreateIfAbsentInTx(ctx context.Context, tx pgx.Tx, account domain.Account) (*domain.Account, bool, error) {
	args := m.Called(ctx, tx, account)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) FindAccountByIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceDeltaInTx(ctx context.Context, tx pgx.Tx, accountID string, delta decimal.Decimal, userID string, now time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, accountID, delta, userID, now)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock LedgerRepository ---
type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryFacade = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByProviderRef(ctx context.Context, providerRef string) (*domain.Transaction, error) {
	args := m.Called(ctx, providerRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken string) ([]domain.Transaction, string, error) {
	args := m.Called(ctx, accountID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.String(1), args.Error(2)
}

func (m *MockLedgerRepository) ListTransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) PostPayment(ctx context.Context, event domain.PaymentEvent, defaults domain.Account) (*domain.PostingResult, *domain.Account, error) {
	args := m.Called(ctx, event, defaults)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.PostingResult), args.Get(1).(*domain.Account), args.Error(2)
}

func (m *MockLedgerRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	args := m.Called(ctx, tx, txn)
	return args.Error(0)
}

// --- Mock WithdrawalRepository ---
type MockWithdrawalRepository struct {
	mock.Mock
}

var _ portsrepo.WithdrawalRepositoryFacade = (*MockWithdrawalRepository)(nil)

func (m *MockWithdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) FindWithdrawalByConversationID(ctx context.Context, conversationID string) (*domain.Withdrawal, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) ListWithdrawals(ctx context.Context, accountID string, limit int, offset int) ([]domain.Withdrawal, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) CreateWithdrawal(ctx context.Context, withdrawal domain.Withdrawal, reserve bool) error {
	args := m.Called(ctx, withdrawal, reserve)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) MarkSubmitted(ctx context.Context, withdrawalID, conversationID, originatorConversationID string, actorID string) error {
	args := m.Called(ctx, withdrawalID, conversationID, originatorConversationID, actorID)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) MarkFailed(ctx context.Context, withdrawalID string, resultCode *int, resultDesc string, actorID string) error {
	args := m.Called(ctx, withdrawalID, resultCode, resultDesc, actorID)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) MarkCancelled(ctx context.Context, withdrawalID string, actorID string) error {
	args := m.Called(ctx, withdrawalID, actorID)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ApplyResult(ctx context.Context, conversationID string, resultCode int, resultDesc string, providerRef string) (*domain.Withdrawal, *domain.PostingResult, bool, error) {
	args := m.Called(ctx, conversationID, resultCode, resultDesc, providerRef)
	var w *domain.Withdrawal
	if args.Get(0) != nil {
		w = args.Get(0).(*domain.Withdrawal)
	}
	var posting *domain.PostingResult
	if args.Get(1) != nil {
		posting = args.Get(1).(*domain.PostingResult)
	}
	return w, posting, args.Bool(2), args.Error(3)
}

func (m *MockWithdrawalRepository) ApplyTimeout(ctx context.Context, conversationID string) (*domain.Withdrawal, bool, error) {
	args := m.Called(ctx, conversationID)
	var w *domain.Withdrawal
	if args.Get(0) != nil {
		w = args.Get(0).(*domain.Withdrawal)
	}
	return w, args.Bool(1), args.Error(2)
}

// --- Mock AuditLogRepository ---
type MockAuditLogRepository struct {
	mock.Mock
}

var _ portsrepo.AuditLogRepositoryFacade = (*MockAuditLogRepository)(nil)

func (m *MockAuditLogRepository) Record(ctx context.Context, entry domain.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) RecordInTx(ctx context.Context, tx pgx.Tx, entry domain.AuditLog) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int, offset int) ([]domain.AuditLog, error) {
	args := m.Called(ctx, entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLog), args.Error(1)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock PayoutClient ---
type MockPayoutClient struct {
	mock.Mock
}

var _ portssvc.PayoutClient = (*MockPayoutClient)(nil)

func (m *MockPayoutClient) SubmitPayout(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutSubmission, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PayoutSubmission), args.Error(1)
}

// --- Notification recorder ---

// notificationRecorder captures Notify calls across goroutines and lets
// tests wait for them.
type notificationRecorder struct {
	mu     sync.Mutex
	events []domain.LedgerEvent
	fired  chan struct{}
}

var _ portssvc.NotificationSvcFacade = (*notificationRecorder)(nil)

func newNotificationRecorder() *notificationRecorder {
	return &notificationRecorder{fired: make(chan struct{}, 16)}
}

func (r *notificationRecorder) Notify(ctx context.Context, event domain.LedgerEvent) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

// wait blocks until one Notify call has landed or the timeout passes.
func (r *notificationRecorder) wait(timeout time.Duration) bool {
	select {
	case <-r.fired:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (r *notificationRecorder) recorded() []domain.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LedgerEvent, len(r.events))
	copy(out, r.events)
	return out
}

// --- Mock WebhookPoster / EventPublisher ---

type MockWebhookPoster struct {
	mock.Mock
}

var _ portssvc.WebhookPoster = (*MockWebhookPoster)(nil)

func (m *MockWebhookPoster) Post(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, body interface{}) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() {
	m.Called()
}
