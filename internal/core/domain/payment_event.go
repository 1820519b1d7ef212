package domain

import (
	"strings"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// PaymentEvent is one inbound payment notification from the provider,
// normalised from the raw callback payload.
type PaymentEvent struct {
	ProviderRef  string          // Provider transaction id, the idempotency key (required)
	Amount       decimal.Decimal // Must be > 0
	Reference    string          // Account reference (bill ref); may be blank
	PayerPhone   string
	PayerName    string
	Shortcode    string // Business shortcode the payment hit
	ProviderTime string // Raw provider transaction time, e.g. 20240131093000
	Raw          []byte // Full callback body for the ledger record
}

// Validate rejects events that must not reach storage.
func (e PaymentEvent) Validate() error {
	if strings.TrimSpace(e.ProviderRef) == "" {
		return apperrors.ErrInvalidEvent
	}
	if !e.Amount.IsPositive() {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// AccountReference returns the event's reference, falling back to the
// reserved offline sentinel when the provider supplied nothing usable.
func (e PaymentEvent) AccountReference() string {
	ref := strings.TrimSpace(strings.ToUpper(e.Reference))
	if ref == "" {
		return OfflineReference
	}
	return ref
}

// PostingResult is the outcome of reconciling one payment event.
// Duplicate postings return the originally recorded transaction.
type PostingResult struct {
	Duplicate     bool            `json:"duplicate"`
	AccountID     string          `json:"accountID"`
	TransactionID string          `json:"transactionID"`
	NewBalance    decimal.Decimal `json:"newBalance"`
}

// LedgerEvent is the payload handed to the notification dispatcher after a
// posting or withdrawal settles. It is built strictly after commit.
type LedgerEvent struct {
	Kind          string          `json:"kind"` // "payment.received" or "withdrawal.completed" etc.
	AccountID     string          `json:"accountID"`
	Reference     string          `json:"reference"`
	TransactionID string          `json:"transactionID"`
	ProviderRef   string          `json:"providerRef"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	PayerPhone    string          `json:"payerPhone,omitempty"`
	PayerName     string          `json:"payerName,omitempty"`
}
