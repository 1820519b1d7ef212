package domain

import (
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account. Accounts are never hard
// deleted; deactivation preserves ledger referential integrity.
type AccountStatus string

const (
	AccountActive    AccountStatus = "ACTIVE"
	AccountInactive  AccountStatus = "INACTIVE"
	AccountSuspended AccountStatus = "SUSPENDED"
)

// AccountType groups accounts by how money reaches them.
type AccountType string

const (
	ProjectAccount    AccountType = "PROJECT"    // fundraising campaign account
	OfflineAccount    AccountType = "OFFLINE"    // catch-all for unattributed payments
	SettlementAccount AccountType = "SETTLEMENT" // internal settlement/holding account
)

// OfflineReference is the reserved sentinel reference used when a payment
// event carries no usable account reference.
const OfflineReference = "OFFLINE"

// Account represents a fundraising account within the core domain.
// Balance is only ever mutated together with a Transaction row inside the
// same database transaction; there are no orphan balance edits.
type Account struct {
	AccountID       string            `json:"accountID"`       // Primary Key (UUID)
	Reference       string            `json:"reference"`       // Unique, stable external key (campaign code / paybill ref)
	Name            string            `json:"name"`            // Display name
	AccountType     AccountType       `json:"accountType"`     // PROJECT, OFFLINE, SETTLEMENT
	ParentAccountID string            `json:"parentAccountID"` // Nullable, hierarchical grouping
	Description     string            `json:"description"`     // Nullable
	Status          AccountStatus     `json:"status"`          // ACTIVE, INACTIVE, SUSPENDED
	Balance         decimal.Decimal   `json:"balance"`         // Persisted balance, currency KES
	Metadata        map[string]string `json:"metadata"`        // Open key-value bag
	AuditFields
}

// IsActive reports whether the account can receive postings.
func (a Account) IsActive() bool {
	return a.Status == AccountActive
}
