package domain

import "github.com/shopspring/decimal"

// PayoutRequest is an outbound payout submission handed to the provider client.
type PayoutRequest struct {
	OriginatorID string // Our correlation id, echoed back on callbacks
	Amount       decimal.Decimal
	Phone        string // Destination MSISDN
	Reason       WithdrawalReason
	Remarks      string
}

// PayoutSubmission is the provider's synchronous acknowledgement of a payout
// request. The actual outcome arrives later on the result/timeout callbacks.
type PayoutSubmission struct {
	ConversationID           string
	OriginatorConversationID string
	ResponseCode             string
	ResponseDescription      string
}
