package domain

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

// Transaction is one immutable ledger entry against an account.
// ProviderRef is the externally supplied idempotency key (the provider
// transaction id); it is unique per successful posting so replayed callbacks
// cannot double-post. Rows are never deleted and only the status may be
// corrected after creation.
type Transaction struct {
	TransactionID string               `json:"transactionID"` // Primary Key (UUID)
	AccountID     string               `json:"accountID"`     // Owning account
	ProviderRef   string               `json:"providerRef"`   // Idempotency key, e.g. M-Pesa TransID
	Amount        decimal.Decimal      `json:"amount"`        // Positive value
	Direction     TransactionDirection `json:"direction"`     // CREDIT or DEBIT
	Status        TransactionStatus    `json:"status"`
	PayerPhone    string               `json:"payerPhone"` // Payer MSISDN, masked in audit logs
	PayerName     string               `json:"payerName"`
	Shortcode     string               `json:"shortcode"`   // Provider business shortcode
	ProviderTime  string               `json:"providerTime"` // Raw provider transaction time
	RawPayload    []byte               `json:"-"`            // Full provider callback, stored as JSONB
	OrgBalance    decimal.Decimal      `json:"orgBalance"`   // Account balance snapshot after this posting
	ProcessedAt   time.Time            `json:"processedAt"`
	AuditFields
}
