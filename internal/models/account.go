package models

import (
	"github.com/shopspring/decimal"
)

// AccountStatus mirrors the domain account lifecycle state.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountInactive  AccountStatus = "INACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
)

// AccountType mirrors the domain account grouping.
type AccountType string

const (
	ProjectAccount    AccountType = "PROJECT"
	OfflineAccount    AccountType = "OFFLINE"
	SettlementAccount AccountType = "SETTLEMENT"
)

// Account is the database representation of a fundraising account.
// Note: ParentAccountID uses string for the nullable self-referencing FK;
// repositories map it through sql.NullString.
type Account struct {
	AccountID       string            `db:"account_id"`
	Reference       string            `db:"reference"` // Unique external key
	Name            string            `db:"name"`
	AccountType     AccountType       `db:"account_type"`
	ParentAccountID string            `db:"parent_account_id"` // Nullable
	Description     string            `db:"description"`
	Status          AccountStatus     `db:"status"`
	Balance         decimal.Decimal   `db:"balance"`
	Metadata        map[string]string `db:"metadata"` // JSONB
	AuditFields
}
