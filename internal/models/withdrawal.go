package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus mirrors the domain withdrawal state machine.
type WithdrawalStatus string

const (
	WithdrawalInitiated WithdrawalStatus = "INITIATED"
	WithdrawalPending   WithdrawalStatus = "PENDING"
	WithdrawalCompleted WithdrawalStatus = "COMPLETED"
	WithdrawalFailed    WithdrawalStatus = "FAILED"
	WithdrawalCancelled WithdrawalStatus = "CANCELLED"
)

// Withdrawal is the database representation of an outbound payout.
type Withdrawal struct {
	WithdrawalID             string           `db:"withdrawal_id"`
	AccountID                string           `db:"account_id"`
	Amount                   decimal.Decimal  `db:"amount"`
	Phone                    string           `db:"phone"`
	Reason                   string           `db:"reason"`
	Remarks                  string           `db:"remarks"`
	Status                   WithdrawalStatus `db:"status"`
	ConversationID           string           `db:"conversation_id"`            // Nullable until submission accepted
	OriginatorConversationID string           `db:"originator_conversation_id"` // Nullable
	ResultCode               *int             `db:"result_code"`                // Nullable
	ResultDesc               string           `db:"result_desc"`
	TransactionID            string           `db:"transaction_id"` // Nullable FK, set on completion
	CompletedAt              *time.Time       `db:"completed_at"`
	AuditFields
}
