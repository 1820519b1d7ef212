package dto

import (
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionResponse defines the data returned for a ledger entry.
type TransactionResponse struct {
	TransactionID string                      `json:"transactionID"`
	AccountID     string                      `json:"accountID"`
	ProviderRef   string                      `json:"providerRef"`
	Amount        decimal.Decimal             `json:"amount"`
	Direction     domain.TransactionDirection `json:"direction"`
	Status        domain.TransactionStatus    `json:"status"`
	PayerPhone    string                      `json:"payerPhone"`
	PayerName     string                      `json:"payerName"`
	OrgBalance    decimal.Decimal             `json:"orgBalance"`
	ProcessedAt   time.Time                   `json:"processedAt"`
}

// ToTransactionResponse converts a domain.Transaction to its response DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		AccountID:     txn.AccountID,
		ProviderRef:   txn.ProviderRef,
		Amount:        txn.Amount,
		Direction:     txn.Direction,
		Status:        txn.Status,
		PayerPhone:    txn.PayerPhone,
		PayerName:     txn.PayerName,
		OrgBalance:    txn.OrgBalance,
		ProcessedAt:   txn.ProcessedAt,
	}
}

// ListTransactionsParams defines query parameters for the paginated listing.
type ListTransactionsParams struct {
	Limit     int    `form:"limit,default=20"`
	NextToken string `form:"nextToken"`
}

// ListTransactionsResponse wraps a page of ledger entries.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    string                `json:"nextToken,omitempty"`
}

// ToListTransactionsResponse converts a page of transactions to the DTO.
func ToListTransactionsResponse(txns []domain.Transaction, nextToken string) ListTransactionsResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return ListTransactionsResponse{Transactions: res, NextToken: nextToken}
}

// StatementParams defines query parameters for a statement request.
type StatementParams struct {
	From time.Time `form:"from" time_format:"2006-01-02" time_utc:"1" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02" time_utc:"1" binding:"required"`
}

// StatementResponse is the rendered account statement.
type StatementResponse struct {
	Account        AccountResponse       `json:"account"`
	From           time.Time             `json:"from"`
	To             time.Time             `json:"to"`
	OpeningBalance decimal.Decimal       `json:"openingBalance"`
	ClosingBalance decimal.Decimal       `json:"closingBalance"`
	TotalCredits   decimal.Decimal       `json:"totalCredits"`
	TotalDebits    decimal.Decimal       `json:"totalDebits"`
	Transactions   []TransactionResponse `json:"transactions"`
}

// ToStatementResponse converts a domain statement to its response DTO.
func ToStatementResponse(st *domain.AccountStatement) StatementResponse {
	txns := make([]TransactionResponse, len(st.Transactions))
	for i := range st.Transactions {
		txns[i] = ToTransactionResponse(&st.Transactions[i])
	}
	return StatementResponse{
		Account:        ToAccountResponse(&st.Account),
		From:           st.From,
		To:             st.To,
		OpeningBalance: st.OpeningBalance,
		ClosingBalance: st.ClosingBalance,
		TotalCredits:   st.TotalCredits,
		TotalDebits:    st.TotalDebits,
		Transactions:   txns,
	}
}
