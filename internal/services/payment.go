package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/josva12/Mpesa-PaySTK/internal/config"
	"github.com/josva12/Mpesa-PaySTK/internal/daraja"
	"github.com/josva12/Mpesa-PaySTK/internal/models"
	"github.com/josva12/Mpesa-PaySTK/internal/observability"
	"github.com/josva12/Mpesa-PaySTK/internal/store"
	"github.com/josva12/Mpesa-PaySTK/internal/validation"
)

const (
	defaultAccountReference = "Payment"
	defaultTransactionDesc  = "Payment for goods/services"

	defaultListLimit = 50
	maxListLimit     = 100
)

// Gateway submits push-payment requests to the provider. Implemented by
// *daraja.Client.
type Gateway interface {
	STKPush(ctx context.Context, phone string, amount float64, accountReference, transactionDesc string) (*daraja.STKPushResponse, error)
}

// PaymentService owns the transaction lifecycle: initiation, callback
// reconciliation, and history queries. It holds no mutable state; all
// cross-request state lives in the store.
type PaymentService struct {
	gateway   Gateway
	store     store.TransactionStore
	metrics   *observability.Metrics
	minAmount float64
	maxAmount float64
}

func NewPaymentService(gateway Gateway, st store.TransactionStore, cfg *config.Config, metrics *observability.Metrics) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		store:     st,
		metrics:   metrics,
		minAmount: cfg.MinAmount,
		maxAmount: cfg.MaxAmount,
	}
}

// InitiatePayment validates the request, submits an STK push and persists
// the resulting PENDING transaction. The insert happens only after the
// provider has accepted the push and issued a CheckoutRequestID, so no
// transaction can exist without its reconciliation key.
func (s *PaymentService) InitiatePayment(ctx context.Context, phoneInput string, amountInput any, accountReference, transactionDesc string) (*models.Transaction, error) {
	phone, err := validation.ValidatePhone(phoneInput)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}
	amount, err := validation.ValidateAmount(amountInput, s.minAmount, s.maxAmount)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	if accountReference == "" {
		accountReference = defaultAccountReference
	}
	if transactionDesc == "" {
		transactionDesc = defaultTransactionDesc
	}

	resp, err := s.gateway.STKPush(ctx, phone, amount, accountReference, transactionDesc)
	if err != nil {
		var rejected *daraja.RejectedError
		if errors.As(err, &rejected) {
			s.metrics.PaymentInitiated("rejected")
			return nil, err
		}
		s.metrics.PaymentInitiated("error")
		return nil, &GatewayError{Op: "stk push", Err: err}
	}

	tx := &models.Transaction{
		Phone:             phone,
		Amount:            amount,
		Status:            models.StatusPending,
		AccountReference:  accountReference,
		TransactionDesc:   transactionDesc,
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		CustomerMessage:   resp.CustomerMessage,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, tx); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			log.Printf("Duplicate transaction attempt: CheckoutRequestID=%s", tx.CheckoutRequestID)
			s.metrics.PaymentInitiated("duplicate")
			return nil, ErrDuplicateTransaction
		}
		s.metrics.PaymentInitiated("error")
		return nil, fmt.Errorf("failed to save transaction: %v", err)
	}

	log.Printf("Payment initiated: Phone=%s, Amount=%.2f, CheckoutRequestID=%s", phone, amount, tx.CheckoutRequestID)
	s.metrics.PaymentInitiated("accepted")
	return tx, nil
}

// ListTransactions returns a page of transactions newest first, plus the
// total count matching the filter regardless of the window.
func (s *PaymentService) ListTransactions(ctx context.Context, phone, status string, limit, skip int64) ([]models.Transaction, int64, error) {
	if status != "" {
		status = strings.ToUpper(status)
		if !models.ValidStatus(status) {
			return nil, 0, &ValidationError{Err: fmt.Errorf("invalid status filter, must be PENDING, SUCCESS or FAILED")}
		}
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	return s.store.List(ctx, store.Filter{Phone: phone, Status: status}, limit, skip)
}
