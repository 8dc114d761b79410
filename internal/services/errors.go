package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTransaction means the provider-issued identifier already
	// exists in the store.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	// ErrTransactionNotFound means no stored transaction matches the
	// callback's identifier. Reconciliation never creates transactions.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrMalformedCallback means the callback body lacks the nested
	// stkCallback structure or its checkout identifier.
	ErrMalformedCallback = errors.New("invalid callback format")
)

// ValidationError marks user-correctable input problems so the HTTP layer
// can answer 400 without string matching.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// GatewayError wraps a failed outbound call (network, timeout, malformed
// response). These surface as 500s and are never retried here.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }
