package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether a ledger entry credits or debits its account.
type TransactionDirection string

const (
	Credit TransactionDirection = "CREDIT"
	Debit  TransactionDirection = "DEBIT"
)

// TransactionStatus is the posting status of a ledger entry.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// Transaction is the database representation of one immutable ledger entry.
// provider_ref carries a unique index; replayed provider callbacks surface as
// a unique violation instead of a second row.
type Transaction struct {
	TransactionID string               `db:"transaction_id"`
	AccountID     string               `db:"account_id"`
	ProviderRef   string               `db:"provider_ref"`
	Amount        decimal.Decimal      `db:"amount"`
	Direction     TransactionDirection `db:"direction"`
	Status        TransactionStatus    `db:"status"`
	PayerPhone    string               `db:"payer_phone"`
	PayerName     string               `db:"payer_name"`
	Shortcode     string               `db:"provider_shortcode"`
	ProviderTime  string               `db:"provider_time"`
	RawPayload    []byte               `db:"raw_payload"` // JSONB
	OrgBalance    decimal.Decimal      `db:"org_balance"` // Balance snapshot after posting
	ProcessedAt   time.Time            `db:"processed_at"`
	AuditFields
}
