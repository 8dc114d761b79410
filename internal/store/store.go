// Package store is the persistence boundary for transactions. The core
// only ever talks to the TransactionStore interface; the Mongo
// implementation owns atomicity of the reconciliation update.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/josva12/Mpesa-PaySTK/internal/models"
)

var (
	// ErrDuplicate is returned by Insert when a transaction with the same
	// checkout_request_id already exists.
	ErrDuplicate = errors.New("duplicate transaction")
	// ErrNotFound is returned when no transaction matches the identifier.
	ErrNotFound = errors.New("transaction not found")
)

// Filter narrows List results. Zero-value fields are ignored.
type Filter struct {
	Phone  string
	Status string
}

// ReceiptDetails carries the provider-confirmed values from a successful
// callback's metadata. Amount and Phone overwrite the request-time values.
type ReceiptDetails struct {
	Amount          float64
	Phone           string
	ReceiptNumber   string
	TransactionDate int64
	Balance         float64
}

// ResultUpdate is the single terminal transition applied by
// reconciliation. Receipt is set only for SUCCESS.
type ResultUpdate struct {
	Status     string
	ResultCode int
	ResultDesc string
	UpdatedAt  time.Time
	Receipt    *ReceiptDetails
}

type TransactionStore interface {
	// Insert persists a new transaction, failing with ErrDuplicate if the
	// checkout_request_id is already present.
	Insert(ctx context.Context, tx *models.Transaction) error

	// ApplyResult finalizes the transaction identified by
	// checkoutRequestID in one conditional write: only a PENDING document
	// is modified, so a terminal status can never be overwritten. The
	// transaction as stored after the call is returned; ErrNotFound if no
	// document matches the identifier at all.
	ApplyResult(ctx context.Context, checkoutRequestID string, update ResultUpdate) (*models.Transaction, error)

	// List returns transactions matching the filter ordered by created_at
	// descending, windowed by limit/skip, together with the total match
	// count independent of the window.
	List(ctx context.Context, f Filter, limit, skip int64) ([]models.Transaction, int64, error)
}
