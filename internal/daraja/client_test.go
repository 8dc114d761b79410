package daraja

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/josva12/Mpesa-PaySTK/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(&config.Config{
		BaseURL:           baseURL,
		ConsumerKey:       "key",
		ConsumerSecret:    "secret",
		BusinessShortcode: "174379",
		Passkey:           "testpasskey",
		CallbackURL:       "https://example.com/callback",
		APITimeout:        5 * time.Second,
	})
}

// provider stands in for the Daraja sandbox: it serves the OAuth endpoint
// and an STK push endpoint whose response body the test controls.
func provider(t *testing.T, pushStatus int, pushBody any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			t.Errorf("token request basic auth = %q:%q", user, pass)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123", "expires_in": "3599"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("stk push Authorization = %q", got)
		}
		var req STKPushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode stk push payload: %v", err)
		}
		if req.TransactionType != "CustomerPayBillOnline" {
			t.Errorf("TransactionType = %q", req.TransactionType)
		}
		if req.PartyA != req.PhoneNumber {
			t.Errorf("PartyA %q != PhoneNumber %q", req.PartyA, req.PhoneNumber)
		}
		if len(req.Timestamp) != 14 {
			t.Errorf("Timestamp = %q, want 14 digits", req.Timestamp)
		}
		w.WriteHeader(pushStatus)
		json.NewEncoder(w).Encode(pushBody)
	})
	return httptest.NewServer(mux)
}

func TestSTKPushAccepted(t *testing.T) {
	srv := provider(t, http.StatusOK, map[string]string{
		"CheckoutRequestID": "ws_CO_1",
		"MerchantRequestID": "mr_1",
		"CustomerMessage":   "Success. Request accepted for processing",
		"ResponseCode":      "0",
	})
	defer srv.Close()

	resp, err := testClient(srv.URL).STKPush(context.Background(), "254708374149", 100, "Payment", "Test")
	if err != nil {
		t.Fatalf("STKPush: %v", err)
	}
	if resp.CheckoutRequestID != "ws_CO_1" || resp.MerchantRequestID != "mr_1" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestSTKPushProviderRejection(t *testing.T) {
	srv := provider(t, http.StatusBadRequest, map[string]string{
		"errorCode":    "400.002.02",
		"errorMessage": "Bad Request - Invalid Amount",
	})
	defer srv.Close()

	_, err := testClient(srv.URL).STKPush(context.Background(), "254708374149", 100, "Payment", "Test")
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error = %v, want *RejectedError", err)
	}
	if rejected.Code != "400.002.02" {
		t.Errorf("rejection code = %q", rejected.Code)
	}
}

func TestSTKPushMissingCheckoutRequestID(t *testing.T) {
	srv := provider(t, http.StatusOK, map[string]string{"ResponseCode": "0"})
	defer srv.Close()

	_, err := testClient(srv.URL).STKPush(context.Background(), "254708374149", 100, "Payment", "Test")
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("error = %v, want *RejectedError", err)
	}
	if rejected.Message != "missing identifier" {
		t.Errorf("rejection message = %q", rejected.Message)
	}
}

func TestAccessTokenMissingField(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"expires_in": "3599"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if _, err := testClient(srv.URL).AccessToken(context.Background()); err == nil {
		t.Fatal("expected error for response without access_token")
	}
}

func TestAccessTokenEndpointDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).AccessToken(context.Background()); err == nil {
		t.Fatal("expected error for 503 from token endpoint")
	}
}
