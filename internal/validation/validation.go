// Package validation holds the pure input checks applied before any
// outbound call is made. Phone numbers are normalized to the 254XXXXXXXXX
// form Safaricom expects; amounts are bounded by the configured limits.
package validation

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var (
	ErrPhoneMissing     = errors.New("phone number is required")
	ErrPhoneLength      = errors.New("phone number must be 12 digits (254XXXXXXXXX)")
	ErrPhoneCountryCode = errors.New("phone number must start with 254")
	ErrPhonePrefix      = errors.New("phone number must be a valid Safaricom number")

	ErrAmountNotNumeric = errors.New("invalid amount format")
	ErrAmountTooLow     = errors.New("amount is below the minimum")
	ErrAmountTooHigh    = errors.New("amount exceeds the maximum")
)

// ValidatePhone strips all non-digit characters and checks the result
// against the Safaricom subscriber format 254[17]XXXXXXXX. Returns the
// normalized number.
func ValidatePhone(input string) (string, error) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	if phone == "" {
		return "", ErrPhoneMissing
	}
	if len(phone) != 12 {
		return "", ErrPhoneLength
	}
	if !strings.HasPrefix(phone, "254") {
		return "", ErrPhoneCountryCode
	}
	if phone[3] != '1' && phone[3] != '7' {
		return "", ErrPhonePrefix
	}
	return phone, nil
}

// ValidateAmount parses input as a decimal and checks it against the
// configured bounds. JSON clients send amounts as either numbers or
// numeric strings, so both are accepted.
func ValidateAmount(input any, min, max float64) (float64, error) {
	var amount float64
	switch v := input.(type) {
	case float64:
		amount = v
	case int:
		amount = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, ErrAmountNotNumeric
		}
		amount = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrAmountNotNumeric
		}
		amount = parsed
	default:
		return 0, ErrAmountNotNumeric
	}

	if amount < min {
		return 0, ErrAmountTooLow
	}
	if amount > max {
		return 0, ErrAmountTooHigh
	}
	return amount, nil
}
