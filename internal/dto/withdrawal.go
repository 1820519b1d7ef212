package dto

import (
	"time"

	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InitiateWithdrawalRequest defines the data needed to start a payout.
type InitiateWithdrawalRequest struct {
	AccountID string                  `json:"accountID" binding:"required,uuid"`
	Amount    decimal.Decimal         `json:"amount" binding:"required"`
	Phone     string                  `json:"phone" binding:"required,msisdn"`
	Reason    domain.WithdrawalReason `json:"reason" binding:"required,oneof=BusinessPayment SalaryPayment PromotionPayment"`
	Remarks   string                  `json:"remarks" binding:"max=100"`
}

// WithdrawalResponse defines the data returned for a withdrawal.
type WithdrawalResponse struct {
	WithdrawalID             string                  `json:"withdrawalID"`
	AccountID                string                  `json:"accountID"`
	Amount                   decimal.Decimal         `json:"amount"`
	Phone                    string                  `json:"phone"`
	Reason                   domain.WithdrawalReason `json:"reason"`
	Remarks                  string                  `json:"remarks"`
	Status                   domain.WithdrawalStatus `json:"status"`
	ConversationID           string                  `json:"conversationID"`
	OriginatorConversationID string                  `json:"originatorConversationID"`
	ResultCode               *int                    `json:"resultCode"`
	ResultDesc               string                  `json:"resultDesc"`
	TransactionID            string                  `json:"transactionID"`
	CompletedAt              *time.Time              `json:"completedAt"`
	CreatedAt                time.Time               `json:"createdAt"`
}

// ToWithdrawalResponse converts a domain.Withdrawal to its response DTO.
func ToWithdrawalResponse(w *domain.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		WithdrawalID:             w.WithdrawalID,
		AccountID:                w.AccountID,
		Amount:                   w.Amount,
		Phone:                    w.Phone,
		Reason:                   w.Reason,
		Remarks:                  w.Remarks,
		Status:                   w.Status,
		ConversationID:           w.ConversationID,
		OriginatorConversationID: w.OriginatorConversationID,
		ResultCode:               w.ResultCode,
		ResultDesc:               w.ResultDesc,
		TransactionID:            w.TransactionID,
		CompletedAt:              w.CompletedAt,
		CreatedAt:                w.CreatedAt,
	}
}

// ToListWithdrawalResponse converts a slice of withdrawals to response DTOs.
func ToListWithdrawalResponse(ws []domain.Withdrawal) []WithdrawalResponse {
	res := make([]WithdrawalResponse, len(ws))
	for i := range ws {
		res[i] = ToWithdrawalResponse(&ws[i])
	}
	return res
}

// ListWithdrawalsParams defines query parameters for listing withdrawals.
type ListWithdrawalsParams struct {
	AccountID string `form:"accountID"`
	Limit     int    `form:"limit,default=20"`
	Offset    int    `form:"offset,default=0"`
}

// B2CResultRequest is the provider's asynchronous payout result callback.
// Field names follow the provider wire format.
type B2CResultRequest struct {
	Result B2CResult `json:"Result" binding:"required"`
}

// B2CResult is the nested result object of a payout callback.
type B2CResult struct {
	ResultType               int    `json:"ResultType"`
	ResultCode               int    `json:"ResultCode"`
	ResultDesc               string `json:"ResultDesc"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ConversationID           string `json:"ConversationID" binding:"required"`
	TransactionID            string `json:"TransactionID"`
}
