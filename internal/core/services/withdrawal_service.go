package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	portssvc "github.com/ChangoHQ/chango_backend/internal/core/ports/services"
	"github.com/ChangoHQ/chango_backend/internal/dto"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/ChangoHQ/chango_backend/internal/utils"
	"github.com/google/uuid"
)

// WithdrawalService orchestrates outbound payouts: it owns the submission
// handshake with the provider and reconciles the asynchronous callbacks that
// settle each withdrawal.
type WithdrawalService struct {
	withdrawalRepo portsrepo.WithdrawalRepositoryFacade
	accountRepo    portsrepo.AccountRepositoryFacade
	payoutClient   portssvc.PayoutClient
	notification   portssvc.NotificationSvcFacade

	// reserveBalance gates initiation on available balance (balance minus
	// in-flight withdrawals). Off by default; the provider is then the only
	// arbiter of whether funds exist.
	reserveBalance bool
}

func NewWithdrawalService(
	withdrawalRepo portsrepo.WithdrawalRepositoryFacade,
	accountRepo portsrepo.AccountRepositoryFacade,
	payoutClient portssvc.PayoutClient,
	notification portssvc.NotificationSvcFacade,
	reserveBalance bool,
) *WithdrawalService {
	return &WithdrawalService{
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
		payoutClient:   payoutClient,
		notification:   notification,
		reserveBalance: reserveBalance,
	}
}

var _ portssvc.WithdrawalSvcFacade = (*WithdrawalService)(nil)

// Initiate creates the withdrawal, submits it to the provider and records the
// outcome of the handshake. Accepted submissions come back PENDING; a
// rejected or failed submission leaves the withdrawal FAILED so the attempt
// stays visible.
func (s *WithdrawalService) Initiate(ctx context.Context, req dto.InitiateWithdrawalRequest, actorID string) (*domain.Withdrawal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	phone := utils.NormalizeMSISDN(req.Phone)
	if !utils.IsValidMSISDN(phone) {
		return nil, fmt.Errorf("%w: invalid destination phone", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.FindAccountByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, fmt.Errorf("%w: account %s is not active", apperrors.ErrValidation, account.AccountID)
	}

	now := time.Now().UTC()
	withdrawal := domain.Withdrawal{
		WithdrawalID: uuid.NewString(),
		AccountID:    account.AccountID,
		Amount:       req.Amount,
		Phone:        phone,
		Reason:       req.Reason,
		Remarks:      req.Remarks,
		Status:       domain.WithdrawalInitiated,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.withdrawalRepo.CreateWithdrawal(ctx, withdrawal, s.reserveBalance); err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			logger.Error("Failed to create withdrawal", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		}
		return nil, err
	}

	remarks := withdrawal.Remarks
	if remarks == "" {
		remarks = "Withdrawal"
	}
	submission, err := s.payoutClient.SubmitPayout(ctx, domain.PayoutRequest{
		OriginatorID: withdrawal.WithdrawalID,
		Amount:       withdrawal.Amount,
		Phone:        withdrawal.Phone,
		Reason:       withdrawal.Reason,
		Remarks:      remarks,
	})
	if err != nil {
		logger.Error("Provider rejected payout submission",
			slog.String("withdrawal_id", withdrawal.WithdrawalID),
			slog.String("error", err.Error()))
		if failErr := s.withdrawalRepo.MarkFailed(ctx, withdrawal.WithdrawalID, nil, err.Error(), actorID); failErr != nil {
			logger.Error("Failed to mark withdrawal failed after submission error",
				slog.String("withdrawal_id", withdrawal.WithdrawalID),
				slog.String("error", failErr.Error()))
		}
		return nil, err
	}

	if err := s.withdrawalRepo.MarkSubmitted(ctx, withdrawal.WithdrawalID, submission.ConversationID, submission.OriginatorConversationID, actorID); err != nil {
		logger.Error("Failed to mark withdrawal submitted",
			slog.String("withdrawal_id", withdrawal.WithdrawalID),
			slog.String("error", err.Error()))
		return nil, err
	}

	withdrawal.Status = domain.WithdrawalPending
	withdrawal.ConversationID = submission.ConversationID
	withdrawal.OriginatorConversationID = submission.OriginatorConversationID

	logger.Info("Withdrawal submitted",
		slog.String("withdrawal_id", withdrawal.WithdrawalID),
		slog.String("conversation_id", submission.ConversationID),
		slog.String("amount", withdrawal.Amount.String()))

	return &withdrawal, nil
}

// ApplyResult reconciles an asynchronous provider result callback. The first
// terminal outcome wins; anything arriving after that is a logged no-op.
func (s *WithdrawalService) ApplyResult(ctx context.Context, conversationID string, resultCode int, resultDesc string, providerRef string) (*domain.Withdrawal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	withdrawal, posting, applied, err := s.withdrawalRepo.ApplyResult(ctx, conversationID, resultCode, resultDesc, providerRef)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to apply payout result",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	if !applied {
		return withdrawal, nil
	}

	logger.Info("Payout result applied",
		slog.String("withdrawal_id", withdrawal.WithdrawalID),
		slog.String("status", string(withdrawal.Status)),
		slog.Int("result_code", resultCode))

	if withdrawal.Status == domain.WithdrawalCompleted && posting != nil {
		notifyCtx := middleware.WithLogger(context.WithoutCancel(ctx), logger)
		go s.notification.Notify(notifyCtx, domain.LedgerEvent{
			Kind:          "withdrawal.completed",
			AccountID:     withdrawal.AccountID,
			TransactionID: posting.TransactionID,
			ProviderRef:   providerRef,
			Amount:        withdrawal.Amount,
			Balance:       posting.NewBalance,
		})
	}

	return withdrawal, nil
}

// ApplyTimeout reconciles a provider queue-timeout callback. A result that
// already settled the withdrawal wins over the timeout.
func (s *WithdrawalService) ApplyTimeout(ctx context.Context, conversationID string) (*domain.Withdrawal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	withdrawal, applied, err := s.withdrawalRepo.ApplyTimeout(ctx, conversationID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to apply payout timeout",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	if applied {
		logger.Warn("Payout timed out at provider", slog.String("withdrawal_id", withdrawal.WithdrawalID))
	}
	return withdrawal, nil
}

// Cancel moves an INITIATED withdrawal to CANCELLED. Once the provider has
// accepted the payout it can no longer be cancelled from our side.
func (s *WithdrawalService) Cancel(ctx context.Context, withdrawalID string, actorID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.withdrawalRepo.MarkCancelled(ctx, withdrawalID, actorID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrInvalidTransition) {
			logger.Error("Failed to cancel withdrawal", slog.String("withdrawal_id", withdrawalID), slog.String("error", err.Error()))
		}
		return err
	}

	logger.Info("Withdrawal cancelled", slog.String("withdrawal_id", withdrawalID))
	return nil
}

func (s *WithdrawalService) GetWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	return s.withdrawalRepo.FindWithdrawalByID(ctx, withdrawalID)
}

func (s *WithdrawalService) ListWithdrawals(ctx context.Context, accountID string, limit int, offset int) ([]domain.Withdrawal, error) {
	return s.withdrawalRepo.ListWithdrawals(ctx, accountID, limit, offset)
}
