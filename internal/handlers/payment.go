package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/josva12/Mpesa-PaySTK/internal/daraja"
	"github.com/josva12/Mpesa-PaySTK/internal/services"
)

type PaymentHandler struct {
	service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type initiateRequest struct {
	Phone            string `json:"phone"`
	Amount           any    `json:"amount"`
	AccountReference string `json:"account_reference"`
	TransactionDesc  string `json:"transaction_desc"`
}

// InitiatePayment handles POST /initiate_payment.
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiateRequest
	dec := json.NewDecoder(r.Body)
	// Amounts may arrive as numbers or numeric strings; UseNumber keeps
	// them intact for validation instead of forcing float64.
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body is required")
		return
	}

	tx, err := h.service.InitiatePayment(r.Context(), req.Phone, req.Amount, req.AccountReference, req.TransactionDesc)
	if err != nil {
		var verr *services.ValidationError
		var rejected *daraja.RejectedError
		var gerr *services.GatewayError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.As(err, &rejected):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "Payment initiation failed",
				"details": rejected.Message,
			})
		case errors.Is(err, services.ErrDuplicateTransaction):
			writeError(w, http.StatusConflict, "Duplicate transaction")
		case errors.As(err, &gerr):
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Payment initiation failed",
				"details": gerr.Error(),
			})
		default:
			log.Printf("Payment initiation failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Payment initiation failed",
				"details": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Payment initiated successfully",
		"data": map[string]string{
			"checkout_request_id": tx.CheckoutRequestID,
			"merchant_request_id": tx.MerchantRequestID,
			"customer_message":    tx.CustomerMessage,
			"status":              tx.Status,
		},
	})
}

// Callback handles POST /callback, the provider's asynchronous result
// delivery.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var env services.CallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, http.StatusBadRequest, "Callback data is required")
		return
	}

	tx, err := h.service.HandleCallback(r.Context(), &env)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMalformedCallback):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrTransactionNotFound):
			writeError(w, http.StatusNotFound, "Transaction not found")
		default:
			log.Printf("Callback processing failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Callback processing failed",
				"details": err.Error(),
			})
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Callback processed successfully",
		"status":  tx.Status,
	})
}

// GetTransactions handles GET /transactions with phone/status filters and
// limit/skip pagination.
func (h *PaymentHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var limit, skip int64
	var err error
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
	}
	if raw := q.Get("skip"); raw != "" {
		if skip, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid skip parameter")
			return
		}
	}

	transactions, total, err := h.service.ListTransactions(r.Context(), q.Get("phone"), q.Get("status"), limit, skip)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		log.Printf("Failed to fetch transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch transactions",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
		"total":        total,
	})
}
