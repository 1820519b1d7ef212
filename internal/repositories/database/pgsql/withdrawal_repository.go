package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	portsrepo "github.com/ChangoHQ/chango_backend/internal/core/ports/repositories"
	"github.com/ChangoHQ/chango_backend/internal/middleware"
	"github.com/ChangoHQ/chango_backend/internal/models"
	"github.com/ChangoHQ/chango_backend/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const withdrawalColumns = `withdrawal_id, account_id, amount, phone, reason, remarks, status, conversation_id, originator_conversation_id, result_code, result_desc, transaction_id, completed_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxWithdrawalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerRepo  portsrepo.LedgerRepositoryFacade
	auditRepo   portsrepo.AuditLogRepositoryFacade
}

// newPgxWithdrawalRepository creates a new repository for outbound payouts.
func newPgxWithdrawalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, auditRepo portsrepo.AuditLogRepositoryFacade) portsrepo.WithdrawalRepositoryFacade {
	return &PgxWithdrawalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
		ledgerRepo:     ledgerRepo,
		auditRepo:      auditRepo,
	}
}

var _ portsrepo.WithdrawalRepositoryFacade = (*PgxWithdrawalRepository)(nil)

func toModelWithdrawal(d domain.Withdrawal) models.Withdrawal {
	return models.Withdrawal{
		WithdrawalID:             d.WithdrawalID,
		AccountID:                d.AccountID,
		Amount:                   d.Amount,
		Phone:                    d.Phone,
		Reason:                   string(d.Reason),
		Remarks:                  d.Remarks,
		Status:                   models.WithdrawalStatus(d.Status),
		ConversationID:           d.ConversationID,
		OriginatorConversationID: d.OriginatorConversationID,
		ResultCode:               d.ResultCode,
		ResultDesc:               d.ResultDesc,
		TransactionID:            d.TransactionID,
		CompletedAt:              d.CompletedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainWithdrawal(m models.Withdrawal) domain.Withdrawal {
	return domain.Withdrawal{
		WithdrawalID:             m.WithdrawalID,
		AccountID:                m.AccountID,
		Amount:                   m.Amount,
		Phone:                    m.Phone,
		Reason:                   domain.WithdrawalReason(m.Reason),
		Remarks:                  m.Remarks,
		Status:                   domain.WithdrawalStatus(m.Status),
		ConversationID:           m.ConversationID,
		OriginatorConversationID: m.OriginatorConversationID,
		ResultCode:               m.ResultCode,
		ResultDesc:               m.ResultDesc,
		TransactionID:            m.TransactionID,
		CompletedAt:              m.CompletedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// scanWithdrawal reads one withdrawal row in withdrawalColumns order.
// Nullable text columns come back through sql-null-friendly pointers.
func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var m models.Withdrawal
	var conversationID, originatorID, transactionID *string
	err := row.Scan(
		&m.WithdrawalID,
		&m.AccountID,
		&m.Amount,
		&m.Phone,
		&m.Reason,
		&m.Remarks,
		&m.Status,
		&conversationID,
		&originatorID,
		&m.ResultCode,
		&m.ResultDesc,
		&transactionID,
		&m.CompletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if conversationID != nil {
		m.ConversationID = *conversationID
	}
	if originatorID != nil {
		m.OriginatorConversationID = *originatorID
	}
	if transactionID != nil {
		m.TransactionID = *transactionID
	}
	d := toDomainWithdrawal(m)
	return &d, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// withdrawalAuditSnapshot marshals a withdrawal for the audit trail with the
// destination phone masked.
func withdrawalAuditSnapshot(w domain.Withdrawal) []byte {
	redacted := w
	redacted.Phone = utils.MaskMSISDN(w.Phone)
	snapshot, err := json.Marshal(redacted)
	if err != nil {
		return nil
	}
	return snapshot
}

// CreateWithdrawal inserts a new INITIATED withdrawal. With reserve enabled
// the source account is row-locked and the available balance (balance minus
// the sum of non-terminal withdrawals) must cover the amount.
func (r *PgxWithdrawalRepository) CreateWithdrawal(ctx context.Context, withdrawal domain.Withdrawal, reserve bool) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if reserve {
		account, err := r.accountRepo.FindAccountByIDForUpdate(ctx, tx, withdrawal.AccountID)
		if err != nil {
			return err
		}

		var reserved decimal.Decimal
		query := `
			SELECT COALESCE(SUM(amount), 0)
			FROM withdrawals
			WHERE account_id = $1 AND status IN ($2, $3);
		`
		if err := tx.QueryRow(ctx, query, withdrawal.AccountID, models.WithdrawalInitiated, models.WithdrawalPending).Scan(&reserved); err != nil {
			return fmt.Errorf("failed to sum reserved withdrawals for account %s: %w", withdrawal.AccountID, err)
		}

		available := account.Balance.Sub(reserved)
		if withdrawal.Amount.GreaterThan(available) {
			return fmt.Errorf("%w: amount %s exceeds available balance %s", apperrors.ErrValidation, withdrawal.Amount.String(), available.String())
		}
	}

	m := toModelWithdrawal(withdrawal)
	query := `
		INSERT INTO withdrawals (` + withdrawalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err = tx.Exec(ctx, query,
		m.WithdrawalID,
		m.AccountID,
		m.Amount,
		m.Phone,
		m.Reason,
		m.Remarks,
		m.Status,
		nullableString(m.ConversationID),
		nullableString(m.OriginatorConversationID),
		m.ResultCode,
		m.ResultDesc,
		nullableString(m.TransactionID),
		m.CompletedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: withdrawal %s already exists", apperrors.ErrDuplicate, withdrawal.WithdrawalID)
		}
		return fmt.Errorf("failed to insert withdrawal %s: %w", withdrawal.WithdrawalID, err)
	}

	if err := r.auditRepo.RecordInTx(ctx, tx, domain.AuditLog{
		AuditID:    uuid.NewString(),
		EntityType: "withdrawal",
		EntityID:   withdrawal.WithdrawalID,
		Action:     domain.AuditActionCreate,
		AfterState: withdrawalAuditSnapshot(withdrawal),
		ActorID:    withdrawal.CreatedBy,
		CreatedAt:  withdrawal.CreatedAt,
	}); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// MarkSubmitted transitions INITIATED -> PENDING after the provider accepted
// the payout request, recording the correlation ids it returned.
func (r *PgxWithdrawalRepository) MarkSubmitted(ctx context.Context, withdrawalID, conversationID, originatorConversationID string, actorID string) error {
	query := `
		UPDATE withdrawals
		SET status = $2, conversation_id = $3, originator_conversation_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE withdrawal_id = $1 AND status = $7;
	`
	tag, err := r.Pool.Exec(ctx, query,
		withdrawalID,
		models.WithdrawalPending,
		nullableString(conversationID),
		nullableString(originatorConversationID),
		time.Now().UTC(),
		actorID,
		models.WithdrawalInitiated,
	)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal %s submitted: %w", withdrawalID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedTransition(ctx, withdrawalID, domain.WithdrawalPending)
	}
	return nil
}

// MarkFailed transitions a non-terminal withdrawal to FAILED.
func (r *PgxWithdrawalRepository) MarkFailed(ctx context.Context, withdrawalID string, resultCode *int, resultDesc string, actorID string) error {
	query := `
		UPDATE withdrawals
		SET status = $2, result_code = $3, result_desc = $4, last_updated_at = $5, last_updated_by = $6
		WHERE withdrawal_id = $1 AND status IN ($7, $8);
	`
	tag, err := r.Pool.Exec(ctx, query,
		withdrawalID,
		models.WithdrawalFailed,
		resultCode,
		resultDesc,
		time.Now().UTC(),
		actorID,
		models.WithdrawalInitiated,
		models.WithdrawalPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal %s failed: %w", withdrawalID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedTransition(ctx, withdrawalID, domain.WithdrawalFailed)
	}
	return nil
}

// MarkCancelled transitions INITIATED -> CANCELLED. A withdrawal the
// provider already accepted cannot be cancelled.
func (r *PgxWithdrawalRepository) MarkCancelled(ctx context.Context, withdrawalID string, actorID string) error {
	query := `
		UPDATE withdrawals
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE withdrawal_id = $1 AND status = $5;
	`
	tag, err := r.Pool.Exec(ctx, query,
		withdrawalID,
		models.WithdrawalCancelled,
		time.Now().UTC(),
		actorID,
		models.WithdrawalInitiated,
	)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal %s cancelled: %w", withdrawalID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainMissedTransition(ctx, withdrawalID, domain.WithdrawalCancelled)
	}
	return nil
}

// explainMissedTransition decides whether a zero-row guarded update means the
// withdrawal is missing or in a state that forbids the transition.
func (r *PgxWithdrawalRepository) explainMissedTransition(ctx context.Context, withdrawalID string, target domain.WithdrawalStatus) error {
	w, err := r.FindWithdrawalByID(ctx, withdrawalID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: withdrawal %s is %s, cannot move to %s", apperrors.ErrInvalidTransition, withdrawalID, w.Status, target)
}

// ApplyResult applies a provider result callback atomically. On the success
// code the withdrawal completes and the debit posting lands in the same
// database transaction; any other code fails it. Callbacks for withdrawals
// already in a terminal state return the stored row unchanged with
// applied=false, which makes duplicate deliveries and results arriving after
// a timeout harmless.
func (r *PgxWithdrawalRepository) ApplyResult(ctx context.Context, conversationID string, resultCode int, resultDesc string, providerRef string) (*domain.Withdrawal, *domain.PostingResult, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	defer r.Rollback(ctx, tx)

	w, err := r.findByConversationIDForUpdate(ctx, tx, conversationID)
	if err != nil {
		return nil, nil, false, err
	}

	if w.IsTerminal() {
		logger.Info("Ignoring result callback for settled withdrawal",
			slog.String("withdrawal_id", w.WithdrawalID),
			slog.String("status", string(w.Status)),
			slog.Int("result_code", resultCode))
		return w, nil, false, nil
	}

	now := time.Now().UTC()
	before := *w

	if resultCode != domain.B2CSuccessCode {
		code := resultCode
		return r.failInTx(ctx, tx, w, before, &code, resultDesc, now)
	}

	if !w.CanTransitionTo(domain.WithdrawalCompleted) {
		return nil, nil, false, fmt.Errorf("%w: withdrawal %s is %s, cannot complete", apperrors.ErrInvalidTransition, w.WithdrawalID, w.Status)
	}

	newBalance, err := r.accountRepo.ApplyBalanceDeltaInTx(ctx, tx, w.AccountID, w.Amount.Neg(), domain.SystemActorID, now)
	if err != nil {
		return nil, nil, false, apperrors.NewAppError(500, "failed to debit account for withdrawal "+w.WithdrawalID, err)
	}

	debitRef := providerRef
	if debitRef == "" {
		// Some result payloads omit the receipt; fall back to our own id so
		// the unique index still holds.
		debitRef = "WDR-" + w.WithdrawalID
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     w.AccountID,
		ProviderRef:   debitRef,
		Amount:        w.Amount,
		Direction:     domain.Debit,
		Status:        domain.TransactionCompleted,
		PayerPhone:    w.Phone,
		Shortcode:     w.OriginatorConversationID,
		OrgBalance:    newBalance,
		ProcessedAt:   now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     domain.SystemActorID,
			LastUpdatedAt: now,
			LastUpdatedBy: domain.SystemActorID,
		},
	}
	if err := r.ledgerRepo.InsertTransactionInTx(ctx, tx, txn); err != nil {
		return nil, nil, false, err
	}

	query := `
		UPDATE withdrawals
		SET status = $2, result_code = $3, result_desc = $4, transaction_id = $5, completed_at = $6, last_updated_at = $6, last_updated_by = $7
		WHERE withdrawal_id = $1;
	`
	if _, err := tx.Exec(ctx, query, w.WithdrawalID, models.WithdrawalCompleted, resultCode, resultDesc, txn.TransactionID, now, domain.SystemActorID); err != nil {
		return nil, nil, false, fmt.Errorf("failed to complete withdrawal %s: %w", w.WithdrawalID, err)
	}

	w.Status = domain.WithdrawalCompleted
	w.ResultCode = &resultCode
	w.ResultDesc = resultDesc
	w.TransactionID = txn.TransactionID
	w.CompletedAt = &now
	w.LastUpdatedAt = now
	w.LastUpdatedBy = domain.SystemActorID

	if err := r.recordTransitionInTx(ctx, tx, before, *w, now); err != nil {
		return nil, nil, false, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, false, err
	}

	posting := &domain.PostingResult{
		AccountID:     w.AccountID,
		TransactionID: txn.TransactionID,
		NewBalance:    newBalance,
	}
	return w, posting, true, nil
}

// ApplyTimeout transitions PENDING -> FAILED after the provider signalled a
// queue timeout. A result that already settled the withdrawal wins; the
// timeout then becomes a no-op.
func (r *PgxWithdrawalRepository) ApplyTimeout(ctx context.Context, conversationID string) (*domain.Withdrawal, bool, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer r.Rollback(ctx, tx)

	w, err := r.findByConversationIDForUpdate(ctx, tx, conversationID)
	if err != nil {
		return nil, false, err
	}

	if w.IsTerminal() {
		return w, false, nil
	}

	now := time.Now().UTC()
	before := *w
	w2, _, applied, err := r.failInTx(ctx, tx, w, before, nil, domain.TimeoutResultDesc, now)
	return w2, applied, err
}

// failInTx moves the locked withdrawal to FAILED inside the open transaction
// and commits.
func (r *PgxWithdrawalRepository) failInTx(ctx context.Context, tx pgx.Tx, w *domain.Withdrawal, before domain.Withdrawal, resultCode *int, resultDesc string, now time.Time) (*domain.Withdrawal, *domain.PostingResult, bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $2, result_code = $3, result_desc = $4, last_updated_at = $5, last_updated_by = $6
		WHERE withdrawal_id = $1;
	`
	if _, err := tx.Exec(ctx, query, w.WithdrawalID, models.WithdrawalFailed, resultCode, resultDesc, now, domain.SystemActorID); err != nil {
		return nil, nil, false, fmt.Errorf("failed to fail withdrawal %s: %w", w.WithdrawalID, err)
	}

	w.Status = domain.WithdrawalFailed
	w.ResultCode = resultCode
	w.ResultDesc = resultDesc
	w.LastUpdatedAt = now
	w.LastUpdatedBy = domain.SystemActorID

	if err := r.recordTransitionInTx(ctx, tx, before, *w, now); err != nil {
		return nil, nil, false, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, false, err
	}
	return w, nil, true, nil
}

func (r *PgxWithdrawalRepository) recordTransitionInTx(ctx context.Context, tx pgx.Tx, before, after domain.Withdrawal, now time.Time) error {
	return r.auditRepo.RecordInTx(ctx, tx, domain.AuditLog{
		AuditID:     uuid.NewString(),
		EntityType:  "withdrawal",
		EntityID:    after.WithdrawalID,
		Action:      domain.AuditActionUpdate,
		BeforeState: withdrawalAuditSnapshot(before),
		AfterState:  withdrawalAuditSnapshot(after),
		ActorID:     domain.SystemActorID,
		CreatedAt:   now,
	})
}

func (r *PgxWithdrawalRepository) findByConversationIDForUpdate(ctx context.Context, tx pgx.Tx, conversationID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE conversation_id = $1 FOR UPDATE;`

	w, err := scanWithdrawal(tx.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no withdrawal for conversation id %s", apperrors.ErrNotFound, conversationID)
		}
		return nil, fmt.Errorf("failed to find withdrawal by conversation id %s: %w", conversationID, err)
	}
	return w, nil
}

// FindWithdrawalByID retrieves a withdrawal by its ID.
func (r *PgxWithdrawalRepository) FindWithdrawalByID(ctx context.Context, withdrawalID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE withdrawal_id = $1;`

	w, err := scanWithdrawal(r.Pool.QueryRow(ctx, query, withdrawalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find withdrawal by ID %s: %w", withdrawalID, err)
	}
	return w, nil
}

// FindWithdrawalByConversationID retrieves a withdrawal by the provider
// correlation id.
func (r *PgxWithdrawalRepository) FindWithdrawalByConversationID(ctx context.Context, conversationID string) (*domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE conversation_id = $1;`

	w, err := scanWithdrawal(r.Pool.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find withdrawal by conversation id %s: %w", conversationID, err)
	}
	return w, nil
}

// ListWithdrawals returns withdrawals for an account newest-first. An empty
// accountID lists across all accounts.
func (r *PgxWithdrawalRepository) ListWithdrawals(ctx context.Context, accountID string, limit int, offset int) ([]domain.Withdrawal, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var rows pgx.Rows
	var err error
	if accountID == "" {
		query := `
			SELECT ` + withdrawalColumns + `
			FROM withdrawals
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2;
		`
		rows, err = r.Pool.Query(ctx, query, limit, offset)
	} else {
		query := `
			SELECT ` + withdrawalColumns + `
			FROM withdrawals
			WHERE account_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3;
		`
		rows, err = r.Pool.Query(ctx, query, accountID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	withdrawals := []domain.Withdrawal{}
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal row: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", rows.Err())
	}

	return withdrawals, nil
}
