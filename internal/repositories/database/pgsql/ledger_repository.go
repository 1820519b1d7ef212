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
	"github.com/ChangoHQ/chango_backend/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const transactionColumns = `transaction_id, account_id, provider_ref, amount, direction, status, payer_phone, payer_name, provider_shortcode, provider_time, raw_payload, org_balance, processed_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxLedgerRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
	auditRepo   portsrepo.AuditLogRepositoryFacade
}

// newPgxLedgerRepository creates a new repository for the transaction ledger.
func newPgxLedgerRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade, auditRepo portsrepo.AuditLogRepositoryFacade) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
		auditRepo:      auditRepo,
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

func toModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID: d.TransactionID,
		AccountID:     d.AccountID,
		ProviderRef:   d.ProviderRef,
		Amount:        d.Amount,
		Direction:     models.TransactionDirection(d.Direction),
		Status:        models.TransactionStatus(d.Status),
		PayerPhone:    d.PayerPhone,
		PayerName:     d.PayerName,
		Shortcode:     d.Shortcode,
		ProviderTime:  d.ProviderTime,
		RawPayload:    d.RawPayload,
		OrgBalance:    d.OrgBalance,
		ProcessedAt:   d.ProcessedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		ProviderRef:   m.ProviderRef,
		Amount:        m.Amount,
		Direction:     domain.TransactionDirection(m.Direction),
		Status:        domain.TransactionStatus(m.Status),
		PayerPhone:    m.PayerPhone,
		PayerName:     m.PayerName,
		Shortcode:     m.Shortcode,
		ProviderTime:  m.ProviderTime,
		RawPayload:    m.RawPayload,
		OrgBalance:    m.OrgBalance,
		ProcessedAt:   m.ProcessedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// scanTransaction reads one transaction row in transactionColumns order.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.AccountID,
		&m.ProviderRef,
		&m.Amount,
		&m.Direction,
		&m.Status,
		&m.PayerPhone,
		&m.PayerName,
		&m.Shortcode,
		&m.ProviderTime,
		&m.RawPayload,
		&m.OrgBalance,
		&m.ProcessedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	d := toDomainTransaction(m)
	return &d, nil
}

// transactionAuditSnapshot marshals a transaction for the audit trail with
// the payer phone masked.
func transactionAuditSnapshot(txn domain.Transaction) []byte {
	redacted := txn
	redacted.PayerPhone = utils.MaskMSISDN(txn.PayerPhone)
	redacted.RawPayload = nil
	snapshot, err := json.Marshal(redacted)
	if err != nil {
		// Marshalling a plain struct cannot realistically fail; fall back to
		// an empty snapshot rather than aborting the posting.
		return nil
	}
	return snapshot
}

func accountAuditSnapshot(acc domain.Account) []byte {
	snapshot, err := json.Marshal(acc)
	if err != nil {
		return nil
	}
	return snapshot
}

const transactionInsertQuery = `
	INSERT INTO transactions (` + transactionColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
`

func execInsertTransaction(ctx context.Context, tx pgx.Tx, m models.Transaction) error {
	_, err := tx.Exec(ctx, transactionInsertQuery,
		m.TransactionID,
		m.AccountID,
		m.ProviderRef,
		m.Amount,
		m.Direction,
		m.Status,
		m.PayerPhone,
		m.PayerName,
		m.Shortcode,
		m.ProviderTime,
		m.RawPayload,
		m.OrgBalance,
		m.ProcessedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return err
}

// PostPayment turns one payment event into exactly one credit posting.
// The whole unit — account resolution, balance increment, ledger insert and
// audit entries — runs inside a single database transaction. Replayed
// provider transaction ids return the original posting without mutating
// anything; the unique index on provider_ref closes the race between two
// concurrent deliveries of the same event.
func (r *PgxLedgerRepository) PostPayment(ctx context.Context, event domain.PaymentEvent, defaults domain.Account) (*domain.PostingResult, *domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Fast path: already posted.
	if existing, err := r.FindTransactionByProviderRef(ctx, event.ProviderRef); err == nil {
		return r.duplicateResult(ctx, existing)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, err
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	// Ignored if the transaction commits.
	defer r.Rollback(ctx, tx)

	now := time.Now().UTC()

	account, created, err := r.accountRepo.CreateIfAbsentInTx(ctx, tx, defaults)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reference %s: %v", apperrors.ErrAccountResolution, defaults.Reference, err)
	}

	newBalance, err := r.accountRepo.ApplyBalanceDeltaInTx(ctx, tx, account.AccountID, event.Amount, domain.SystemActorID, now)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to update account balance", err)
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     account.AccountID,
		ProviderRef:   event.ProviderRef,
		Amount:        event.Amount,
		Direction:     domain.Credit,
		Status:        domain.TransactionCompleted,
		PayerPhone:    event.PayerPhone,
		PayerName:     event.PayerName,
		Shortcode:     event.Shortcode,
		ProviderTime:  event.ProviderTime,
		RawPayload:    event.Raw,
		OrgBalance:    newBalance,
		ProcessedAt:   now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     domain.SystemActorID,
			LastUpdatedAt: now,
			LastUpdatedBy: domain.SystemActorID,
		},
	}

	if err := execInsertTransaction(ctx, tx, toModelTransaction(txn)); err != nil {
		if isUniqueViolation(err) {
			// A concurrent delivery of the same event won the race. Abort
			// this unit and surface the winner's posting.
			if rbErr := r.Rollback(ctx, tx); rbErr != nil {
				logger.Warn("Rollback after duplicate posting race failed", slog.String("error", rbErr.Error()))
			}
			existing, findErr := r.FindTransactionByProviderRef(ctx, event.ProviderRef)
			if findErr != nil {
				return nil, nil, apperrors.NewAppError(500, "failed to load winning transaction after duplicate race", findErr)
			}
			return r.duplicateResult(ctx, existing)
		}
		return nil, nil, apperrors.NewAppError(500, "failed to insert transaction "+txn.TransactionID, err)
	}

	if created {
		postAccount := *account
		if err := r.auditRepo.RecordInTx(ctx, tx, domain.AuditLog{
			AuditID:    uuid.NewString(),
			EntityType: "account",
			EntityID:   account.AccountID,
			Action:     domain.AuditActionCreate,
			AfterState: accountAuditSnapshot(postAccount),
			ActorID:    domain.SystemActorID,
			CreatedAt:  now,
		}); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to record account audit entry", err)
		}
	}

	if err := r.auditRepo.RecordInTx(ctx, tx, domain.AuditLog{
		AuditID:    uuid.NewString(),
		EntityType: "transaction",
		EntityID:   txn.TransactionID,
		Action:     domain.AuditActionCreate,
		AfterState: transactionAuditSnapshot(txn),
		ActorID:    domain.SystemActorID,
		CreatedAt:  now,
	}); err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to record transaction audit entry", err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, nil, err
	}

	postedAccount := *account
	postedAccount.Balance = newBalance

	return &domain.PostingResult{
		AccountID:     account.AccountID,
		TransactionID: txn.TransactionID,
		NewBalance:    newBalance,
	}, &postedAccount, nil
}

// duplicateResult builds the response for an already-posted event.
func (r *PgxLedgerRepository) duplicateResult(ctx context.Context, existing *domain.Transaction) (*domain.PostingResult, *domain.Account, error) {
	account, err := r.accountRepo.FindAccountByID(ctx, existing.AccountID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load account %s for duplicate posting: %w", existing.AccountID, err)
	}
	return &domain.PostingResult{
		Duplicate:     true,
		AccountID:     existing.AccountID,
		TransactionID: existing.TransactionID,
		NewBalance:    existing.OrgBalance,
	}, account, nil
}

// InsertTransactionInTx appends a ledger entry inside a caller-owned
// transaction, together with its audit entry. Used by the withdrawal
// repository for completion debits.
func (r *PgxLedgerRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	if err := execInsertTransaction(ctx, tx, toModelTransaction(txn)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: provider ref %s already posted", apperrors.ErrDuplicate, txn.ProviderRef)
		}
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}

	return r.auditRepo.RecordInTx(ctx, tx, domain.AuditLog{
		AuditID:    uuid.NewString(),
		EntityType: "transaction",
		EntityID:   txn.TransactionID,
		Action:     domain.AuditActionCreate,
		AfterState: transactionAuditSnapshot(txn),
		ActorID:    txn.CreatedBy,
		CreatedAt:  txn.CreatedAt,
	})
}

// FindTransactionByID retrieves a ledger entry by its ID.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}
	return txn, nil
}

// FindTransactionByProviderRef retrieves a ledger entry by its idempotency key.
func (r *PgxLedgerRepository) FindTransactionByProviderRef(ctx context.Context, providerRef string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE provider_ref = $1;`

	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, providerRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by provider ref %s: %w", providerRef, err)
	}
	return txn, nil
}

// ListTransactionsByAccount pages the ledger newest-first with a keyset cursor.
func (r *PgxLedgerRepository) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, nextToken string) ([]domain.Transaction, string, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if nextToken == "" {
		query := `
			SELECT ` + transactionColumns + `
			FROM transactions
			WHERE account_id = $1
			ORDER BY processed_at DESC, transaction_id DESC
			LIMIT $2;
		`
		rows, err = r.Pool.Query(ctx, query, accountID, limit)
	} else {
		cursorTime, cursorID, decodeErr := pagination.DecodeToken(nextToken)
		if decodeErr != nil {
			return nil, "", fmt.Errorf("%w: %v", apperrors.ErrValidation, decodeErr)
		}
		query := `
			SELECT ` + transactionColumns + `
			FROM transactions
			WHERE account_id = $1 AND (processed_at, transaction_id) < ($2, $3)
			ORDER BY processed_at DESC, transaction_id DESC
			LIMIT $4;
		`
		rows, err = r.Pool.Query(ctx, query, accountID, cursorTime, cursorID, limit)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	if rows.Err() != nil {
		return nil, "", fmt.Errorf("error iterating transaction rows: %w", rows.Err())
	}

	next := ""
	if len(txns) == limit {
		last := txns[len(txns)-1]
		next = pagination.EncodeToken(last.ProcessedAt, last.TransactionID)
	}
	return txns, next, nil
}

// ListTransactionsBetween returns completed transactions for an account in
// [from, to], oldest first, for statement rendering.
func (r *PgxLedgerRepository) ListTransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND status = $2 AND processed_at >= $3 AND processed_at <= $4
		ORDER BY processed_at ASC, transaction_id ASC;
	`

	rows, err := r.Pool.Query(ctx, query, accountID, models.TransactionCompleted, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement transaction row: %w", err)
		}
		txns = append(txns, *txn)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating statement transaction rows: %w", rows.Err())
	}

	return txns, nil
}
