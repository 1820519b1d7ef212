package dto

import (
	"fmt"

	"github.com/ChangoHQ/chango_backend/internal/apperrors"
	"github.com/ChangoHQ/chango_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// C2BConfirmationRequest is the provider's customer-to-business confirmation
// callback body. Field names follow the provider wire format.
type C2BConfirmationRequest struct {
	TransactionType   string `json:"TransactionType"`
	TransID           string `json:"TransID" binding:"required"`
	TransTime         string `json:"TransTime"`
	TransAmount       string `json:"TransAmount" binding:"required"`
	BusinessShortCode string `json:"BusinessShortCode"`
	BillRefNumber     string `json:"BillRefNumber"`
	InvoiceNumber     string `json:"InvoiceNumber"`
	OrgAccountBalance string `json:"OrgAccountBalance"`
	ThirdPartyTransID string `json:"ThirdPartyTransID"`
	MSISDN            string `json:"MSISDN"`
	FirstName         string `json:"FirstName"`
	MiddleName        string `json:"MiddleName"`
	LastName          string `json:"LastName"`
}

// ToPaymentEvent normalises the callback into a domain event. raw is the
// original request body, preserved verbatim on the ledger row.
func (r C2BConfirmationRequest) ToPaymentEvent(raw []byte) (domain.PaymentEvent, error) {
	amount, err := decimal.NewFromString(r.TransAmount)
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("%w: unparseable amount %q", apperrors.ErrInvalidAmount, r.TransAmount)
	}

	name := r.FirstName
	if r.MiddleName != "" {
		name += " " + r.MiddleName
	}
	if r.LastName != "" {
		name += " " + r.LastName
	}

	return domain.PaymentEvent{
		ProviderRef:  r.TransID,
		Amount:       amount,
		Reference:    r.BillRefNumber,
		PayerPhone:   r.MSISDN,
		PayerName:    name,
		Shortcode:    r.BusinessShortCode,
		ProviderTime: r.TransTime,
		Raw:          raw,
	}, nil
}

// CallbackResponse is the acknowledgement body returned to the provider.
// Callback endpoints must answer quickly and idempotently regardless of retry.
type CallbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
