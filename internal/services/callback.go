package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/josva12/Mpesa-PaySTK/internal/models"
	"github.com/josva12/Mpesa-PaySTK/internal/store"
)

// CallbackEnvelope mirrors the wire shape of a Daraja STK callback:
// {"Body":{"stkCallback":{...}}}.
type CallbackEnvelope struct {
	Body struct {
		StkCallback *StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// MetadataItem values arrive untyped: amounts and dates as JSON numbers,
// receipt numbers as strings, phone numbers as either.
type MetadataItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

// HandleCallback applies a provider callback to the stored transaction.
// Result code 0 maps to SUCCESS with the receipt details from the
// metadata list; any other code maps to FAILED. The update is keyed by
// CheckoutRequestID and conditional on the transaction still being
// PENDING, so redelivered callbacks are acknowledged without re-applying
// the transition and a finalized transaction is never overwritten.
func (s *PaymentService) HandleCallback(ctx context.Context, env *CallbackEnvelope) (*models.Transaction, error) {
	cb := env.Body.StkCallback
	if cb == nil {
		s.metrics.CallbackProcessed("malformed")
		return nil, ErrMalformedCallback
	}
	if cb.CheckoutRequestID == "" {
		s.metrics.CallbackProcessed("malformed")
		return nil, fmt.Errorf("%w: CheckoutRequestID is required", ErrMalformedCallback)
	}

	update := store.ResultUpdate{
		Status:     models.StatusFailed,
		ResultCode: cb.ResultCode,
		ResultDesc: cb.ResultDesc,
		UpdatedAt:  time.Now().UTC(),
	}
	if cb.ResultCode == 0 {
		receipt, err := receiptFromMetadata(cb.CallbackMetadata.Item)
		if err != nil {
			log.Printf("Callback metadata incomplete: CheckoutRequestID=%s, error=%v", cb.CheckoutRequestID, err)
			s.metrics.CallbackProcessed("malformed")
			return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
		}
		update.Status = models.StatusSuccess
		update.Receipt = receipt
	}

	tx, err := s.store.ApplyResult(ctx, cb.CheckoutRequestID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("Transaction not found: CheckoutRequestID=%s", cb.CheckoutRequestID)
			s.metrics.CallbackProcessed("unknown")
			return nil, ErrTransactionNotFound
		}
		s.metrics.CallbackProcessed("error")
		return nil, err
	}

	if tx.Status != update.Status {
		// Already terminal with a different result. First write wins; keep
		// the stored audit record and acknowledge with what we have.
		log.Printf("Callback ignored for finalized transaction: CheckoutRequestID=%s, stored=%s, delivered=%s",
			cb.CheckoutRequestID, tx.Status, update.Status)
	}

	log.Printf("Callback processed: CheckoutRequestID=%s, Status=%s", cb.CheckoutRequestID, tx.Status)
	s.metrics.CallbackProcessed(tx.Status)
	return tx, nil
}

// receiptFromMetadata flattens the Name/Value list of a successful
// callback. The receipt number is mandatory: a SUCCESS transaction must
// never be stored without its transaction_id.
func receiptFromMetadata(items []MetadataItem) (*store.ReceiptDetails, error) {
	meta := make(map[string]any, len(items))
	for _, item := range items {
		meta[item.Name] = item.Value
	}

	receiptNumber := asString(meta["MpesaReceiptNumber"])
	if receiptNumber == "" {
		return nil, fmt.Errorf("MpesaReceiptNumber missing from callback metadata")
	}

	return &store.ReceiptDetails{
		Amount:          asFloat(meta["Amount"]),
		Phone:           asString(meta["PhoneNumber"]),
		ReceiptNumber:   receiptNumber,
		TransactionDate: asInt64(meta["TransactionDate"]),
		Balance:         asFloat(meta["Balance"]),
	}, nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		parsed, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
