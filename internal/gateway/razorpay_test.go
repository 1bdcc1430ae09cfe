package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(secret, chargeID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(chargeID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := NewRazorpayClient("key_id", "key_secret")

	chargeID := "order_abc123"
	paymentID := "pay_xyz789"
	valid := signPayload("key_secret", chargeID, paymentID)

	if !client.VerifySignature(chargeID, paymentID, valid) {
		t.Error("valid signature rejected")
	}
	if client.VerifySignature(chargeID, paymentID, "deadbeef") {
		t.Error("forged signature accepted")
	}
	if client.VerifySignature(chargeID, "pay_other", valid) {
		t.Error("signature for a different payment accepted")
	}
	if client.VerifySignature(chargeID, paymentID, signPayload("wrong_secret", chargeID, paymentID)) {
		t.Error("signature made with the wrong secret accepted")
	}
	if client.VerifySignature(chargeID, paymentID, "") {
		t.Error("empty signature accepted")
	}
}

func TestEnabled(t *testing.T) {
	if NewRazorpayClient("", "").Enabled() {
		t.Error("client without credentials reported enabled")
	}
	if !NewRazorpayClient("id", "secret").Enabled() {
		t.Error("configured client reported disabled")
	}
}
