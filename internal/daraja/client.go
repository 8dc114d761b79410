// Package daraja is a thin client for the Safaricom Daraja API: OAuth
// token generation and STK push submission. It holds no state beyond
// configuration; every push fetches a fresh access token.
package daraja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/josva12/Mpesa-PaySTK/internal/config"
)

type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortcode      string
	passkey        string
	callbackURL    string
	http           *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortcode:      cfg.BusinessShortcode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL,
		http:           &http.Client{Timeout: cfg.APITimeout},
	}
}

// RejectedError is a synchronous decline from the provider: the push
// request was understood and refused, so nothing is persisted.
type RejectedError struct {
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// STKPushRequest is the processrequest payload as Daraja expects it.
type STKPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int    `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

// STKPushResponse is the accepted-submission response. Error responses
// carry errorCode/errorMessage instead and surface as RejectedError.
type STKPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	MerchantRequestID string `json:"MerchantRequestID"`
	CustomerMessage   string `json:"CustomerMessage"`
	ResponseCode      string `json:"ResponseCode"`

	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// AccessToken fetches a fresh OAuth bearer token using the configured
// consumer key/secret as HTTP Basic credentials.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %v", err)
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %v", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("access token not found in response")
	}

	return token.AccessToken, nil
}

// STKPush submits a push-payment request for the given normalized phone
// and amount. It returns *RejectedError when the provider declines the
// request or omits the checkout identifier; any transport or decoding
// failure is returned as a plain error for the caller to classify.
func (c *Client) STKPush(ctx context.Context, phone string, amount float64, accountReference, transactionDesc string) (*STKPushResponse, error) {
	accessToken, err := c.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.shortcode, c.passkey, time.Now())

	payload := STKPushRequest{
		BusinessShortCode: c.shortcode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            int(amount),
		PartyA:            phone,
		PartyB:            c.shortcode,
		PhoneNumber:       phone,
		CallBackURL:       c.callbackURL,
		AccountReference:  accountReference,
		TransactionDesc:   transactionDesc,
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stk push request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create stk push request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stk push request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stk push response: %v", err)
	}

	var result STKPushResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode stk push response (status %d): %s", resp.StatusCode, string(body))
	}

	if result.ErrorCode != "" {
		log.Printf("STK push rejected by provider: code=%s message=%s", result.ErrorCode, result.ErrorMessage)
		return nil, &RejectedError{Code: result.ErrorCode, Message: result.ErrorMessage}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stk push failed with status %d: %s", resp.StatusCode, string(body))
	}
	if result.CheckoutRequestID == "" {
		log.Printf("STK push response missing CheckoutRequestID: %s", string(body))
		return nil, &RejectedError{Message: "missing identifier"}
	}

	return &result, nil
}
