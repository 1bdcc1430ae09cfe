// Package gateway wraps the external payment provider. The service
// layer depends on the Client interface so tests can substitute a fake.
package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Charge is a provider-side payment order.
type Charge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client is the provider surface the payment service uses.
type Client interface {
	// CreateCharge registers a payable order with the provider. Amount
	// is in the currency's minor unit (paise).
	CreateCharge(amount int64, currency, receipt string) (*Charge, error)
	// VerifySignature checks the callback signature for a charge and
	// payment pair.
	VerifySignature(chargeID, paymentID, signature string) bool
}

// RazorpayClient talks to the Razorpay REST API with basic auth.
type RazorpayClient struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// NewRazorpayClient builds a client from API credentials.
func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether credentials are configured.
func (r *RazorpayClient) Enabled() bool {
	return r.keyID != "" && r.keySecret != ""
}

// CreateCharge registers an order with the provider.
func (r *RazorpayClient) CreateCharge(amount int64, currency, receipt string) (*Charge, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway order creation failed: status %d: %s", resp.StatusCode, string(body))
	}

	var charge Charge
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "chargeID|paymentID"
// with the key secret and compares in constant time.
func (r *RazorpayClient) VerifySignature(chargeID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(r.keySecret))
	mac.Write([]byte(chargeID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
