package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/google/uuid"
)

type AccountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	auditRepo   portsrepo.AuditLogRepositoryFacade
}

func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, auditRepo portsrepo.AuditLogRepositoryFacade) *AccountService {
	return &AccountService{accountRepo: accountRepo, auditRepo: auditRepo}
}

var _ portssvc.AccountSvcFacade = (*AccountService)(nil)

func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()

	parentID := ""
	if req.ParentAccountID != nil {
		parentID = *req.ParentAccountID
		if _, err := s.accountRepo.FindAccountByID(ctx, parentID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewAppError(400, "parent account not found", apperrors.ErrValidation)
			}
			return nil, err
		}
	}

	account := domain.Account{
		AccountID:       uuid.NewString(),
		Reference:       normalizeReference(req.Reference),
		Name:            req.Name,
		AccountType:     req.AccountType,
		ParentAccountID: parentID,
		Description:     req.Description,
		Status:          domain.AccountActive,
		Metadata:        req.Metadata,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		}
		return nil, err
	}

	s.recordAudit(ctx, domain.AuditLog{
		AuditID:    uuid.NewString(),
		EntityType: "account",
		EntityID:   account.AccountID,
		Action:     domain.AuditActionCreate,
		AfterState: marshalSnapshot(account),
		ActorID:    actorID,
		CreatedAt:  now,
	})

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("reference", account.Reference))
	return &account, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by ID", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *AccountService) GetAccountByReference(ctx context.Context, reference string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	account, err := s.accountRepo.FindAccountByReference(ctx, normalizeReference(reference))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by reference", slog.String("error", err.Error()))
		}
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves a paginated list of accounts.
func (s *AccountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		logger.Error("Failed to list accounts", slog.String("error", err.Error()), slog.Int("limit", limit), slog.Int("offset", offset))
		return nil, err
	}
	return accounts, nil
}

func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	before := *account

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.Status != nil {
		account.Status = *req.Status
	}
	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = actorID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, err
	}

	s.recordAudit(ctx, domain.AuditLog{
		AuditID:     uuid.NewString(),
		EntityType:  "account",
		EntityID:    accountID,
		Action:      domain.AuditActionUpdate,
		BeforeState: marshalSnapshot(before),
		AfterState:  marshalSnapshot(*account),
		ActorID:     actorID,
		CreatedAt:   account.LastUpdatedAt,
	})

	logger.Info("Account updated", slog.String("account_id", accountID))
	return account, nil
}

// DeactivateAccount marks the account INACTIVE. The row and its ledger stay.
func (s *AccountService) DeactivateAccount(ctx context.Context, accountID string, actorID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	if err := s.accountRepo.DeactivateAccount(ctx, accountID, actorID, now); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return err
	}

	s.recordAudit(ctx, domain.AuditLog{
		AuditID:    uuid.NewString(),
		EntityType: "account",
		EntityID:   accountID,
		Action:     domain.AuditActionDelete,
		ActorID:    actorID,
		CreatedAt:  now,
	})

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}

// recordAudit persists an audit entry outside the main mutation. Audit
// failures here are logged, not propagated; the mutation already happened.
func (s *AccountService) recordAudit(ctx context.Context, entry domain.AuditLog) {
	if err := s.auditRepo.Record(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to record audit entry",
			slog.String("error", err.Error()),
			slog.String("entity_id", entry.EntityID))
	}
}

// normalizeReference canonicalizes an account reference the same way inbound
// payment events are normalized, so lookups and postings agree.
func normalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

func marshalSnapshot(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
