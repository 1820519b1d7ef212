package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the state of an outbound payout request.
// Lifecycle: INITIATED -> PENDING -> {COMPLETED, FAILED, CANCELLED}.
// Terminal states are monotonic; a withdrawal never leaves a terminal state.
type WithdrawalStatus string

const (
	WithdrawalInitiated WithdrawalStatus = "INITIATED"
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalFailed    WithdrawalStatus = "FAILED"
	WithdrawalCancelled WithdrawalStatus = "CANCELLED"
)

// WithdrawalReason is the provider command id sent with a B2C request.
type WithdrawalReason string

const (
	BusinessPayment  WithdrawalReason = "BusinessPayment"
	SalaryPayment    WithdrawalReason = "SalaryPayment"
	PromotionPayment WithdrawalReason = "PromotionPayment"
)

// B2CSuccessCode is the provider result code signalling a successful payout.
const B2CSuccessCode = 0

// TimeoutResultDesc is recorded when the provider signals a queue timeout
// before delivering a result.
const TimeoutResultDesc = "provider timeout before result"

// Withdrawal is an outbound payout tracked against the account it debits.
// On COMPLETED, TransactionID links the debit posting created for it.
type Withdrawal struct {
	WithdrawalID              string           `json:"withdrawalID"` // Primary Key (UUID)
	AccountID                 string           `json:"accountID"`    // Source account
	Amount                    decimal.Decimal  `json:"amount"`       // Positive value
	Phone                     string           `json:"phone"`        // Destination MSISDN
	Reason                    WithdrawalReason `json:"reason"`
	Remarks                   string           `json:"remarks"`
	Status                    WithdrawalStatus `json:"status"`
	ConversationID            string           `json:"conversationID"`           // Provider-assigned correlation id
	OriginatorConversationID  string           `json:"originatorConversationID"` // Our correlation id echoed by the provider
	ResultCode                *int             `json:"resultCode"`               // Nil until a result or timeout arrives
	ResultDesc                string           `json:"resultDesc"`
	TransactionID             string           `json:"transactionID"` // Set once completed
	CompletedAt               *time.Time       `json:"completedAt"`
	AuditFields
}

// IsTerminal reports whether the withdrawal has reached a final state.
func (w Withdrawal) IsTerminal() bool {
	switch w.Status {
	case WithdrawalCompleted, WithdrawalFailed, WithdrawalCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving to next is a legal state change.
// Replays of an already-applied terminal result are not legal transitions;
// callers treat them as no-ops instead.
func (w Withdrawal) CanTransitionTo(next WithdrawalStatus) bool {
	switch w.Status {
	case WithdrawalInitiated:
		return next == WithdrawalPending || next == WithdrawalFailed || next == WithdrawalCancelled
	case WithdrawalPending:
		return next == WithdrawalCompleted || next == WithdrawalFailed
	default:
		return false
	}
}
