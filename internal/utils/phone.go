package utils

import (
	"regexp"
	"strings"
)

// msisdnPattern matches Kenyan MSISDNs in international format without a
// leading plus, the shape the provider delivers and expects.
var msisdnPattern = regexp.MustCompile(`^254[17]\d{8}$`)

// NormalizeMSISDN converts common phone spellings (07..., +254..., 254...)
// to the canonical 254XXXXXXXXX form. Returns the input unchanged when it
// cannot be normalised; callers validate separately.
func NormalizeMSISDN(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") && len(p) == 10 {
		p = "254" + p[1:]
	}
	return p
}

// IsValidMSISDN reports whether phone is a canonical Kenyan MSISDN.
func IsValidMSISDN(phone string) bool {
	return msisdnPattern.MatchString(phone)
}

// MaskMSISDN redacts the middle digits of a phone number for audit snapshots
// and logs, keeping the prefix and last two digits.
func MaskMSISDN(phone string) string {
	if len(phone) < 6 {
		return "****"
	}
	return phone[:4] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-2:]
}
