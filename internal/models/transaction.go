package models

import "time"

// Transaction statuses. PENDING is the only initial state; SUCCESS and
// FAILED are terminal and a transaction transitions at most once.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// ValidStatus reports whether s is one of the known transaction statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusSuccess || s == StatusFailed
}

// Transaction is one STK push payment attempt. It is created PENDING when
// the provider accepts the push request and finalized exactly once by the
// matching callback. CheckoutRequestID is the reconciliation key and is
// always provider-issued.
type Transaction struct {
	Phone             string    `bson:"phone" json:"phone"`
	Amount            float64   `bson:"amount" json:"amount"`
	Status            string    `bson:"status" json:"status"`
	AccountReference  string    `bson:"account_reference" json:"account_reference"`
	TransactionDesc   string    `bson:"transaction_desc" json:"transaction_desc"`
	CheckoutRequestID string    `bson:"checkout_request_id" json:"checkout_request_id"`
	MerchantRequestID string    `bson:"merchant_request_id" json:"merchant_request_id"`
	CustomerMessage   string    `bson:"customer_message" json:"customer_message"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`

	// Set by reconciliation, stored verbatim for audit.
	ResultCode *int   `bson:"result_code,omitempty" json:"result_code,omitempty"`
	ResultDesc string `bson:"result_desc,omitempty" json:"result_desc,omitempty"`

	// Present only after a successful callback. TransactionID is the
	// M-Pesa receipt number, unique once set.
	TransactionID   string  `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	TransactionDate int64   `bson:"transaction_date,omitempty" json:"transaction_date,omitempty"`
	Balance         float64 `bson:"balance,omitempty" json:"balance,omitempty"`
}
