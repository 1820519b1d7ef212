package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatement is the materialised statement for an account over a period.
// Opening and closing balances are derived from the org_balance snapshots of
// the transactions bounding the period, so a statement never re-aggregates
// the full ledger.
type AccountStatement struct {
	Account        Account         `json:"account"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	TotalCredits   decimal.Decimal `json:"totalCredits"`
	TotalDebits    decimal.Decimal `json:"totalDebits"`
	Transactions   []Transaction   `json:"transactions"`
}
