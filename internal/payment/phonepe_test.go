package payment

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		MerchantID: "M1",
		SaltKey:    "salt",
		SaltIndex:  "1",
	})
}

func TestSignFormat(t *testing.T) {
	c := testClient("")

	got := c.Sign("payload/pg/v1/pay")
	parts := strings.Split(got, "###")
	if len(parts) != 2 {
		t.Fatalf("expected hash###index, got %q", got)
	}
	if parts[1] != "1" {
		t.Fatalf("expected salt index 1, got %q", parts[1])
	}

	sum := sha256.Sum256([]byte("payload/pg/v1/pay" + "salt"))
	if parts[0] != hex.EncodeToString(sum[:]) {
		t.Fatal("checksum does not match sha256(base + saltKey)")
	}
}

func TestInitiateSendsSignedPayloadAndReturnsRedirect(t *testing.T) {
	var gotVerify string
	var gotRequest string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pg/v1/pay" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotVerify = r.Header.Get("X-VERIFY")

		var body struct {
			Request string `json:"request"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRequest = body.Request

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_INITIATED",
			"data": map[string]interface{}{
				"instrumentResponse": map[string]interface{}{
					"redirectInfo": map[string]interface{}{
						"url": "https://pay.example/session",
					},
				},
			},
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	url, err := c.Initiate(context.Background(), InitiateRequest{
		TransactionID: "TXN1",
		UserID:        "u1",
		Amount:        149900,
		RedirectURL:   "https://shop.example/payment/status?transactionId=TXN1",
		CallbackURL:   "https://shop.example/webhooks/phonepe",
	})
	if err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	if url != "https://pay.example/session" {
		t.Fatalf("unexpected redirect url %q", url)
	}

	if gotVerify != c.Sign(gotRequest+"/pg/v1/pay") {
		t.Fatal("X-VERIFY was not signed over base64Payload + path + salt")
	}

	raw, err := base64.StdEncoding.DecodeString(gotRequest)
	if err != nil {
		t.Fatalf("request payload not base64: %v", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("request payload not json: %v", err)
	}
	if payload["amount"] != float64(149900) {
		t.Fatalf("expected amount in paise 149900, got %v", payload["amount"])
	}
	if payload["merchantTransactionId"] != "TXN1" {
		t.Fatalf("unexpected merchantTransactionId %v", payload["merchantTransactionId"])
	}
}

func TestStatusParsesCompletedState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pg/v1/status/M1/TXN1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-VERIFY") == "" {
			t.Error("status request missing X-VERIFY")
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"code":    "PAYMENT_SUCCESS",
			"data": map[string]interface{}{
				"merchantTransactionId": "TXN1",
				"transactionId":         "GW123",
				"state":                 "COMPLETED",
				"responseCode":          "SUCCESS",
			},
		})
	}))
	defer server.Close()

	c := testClient(server.URL)
	result, err := c.Status(context.Background(), "TXN1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if result.State != StateCompleted {
		t.Fatalf("expected COMPLETED, got %s", result.State)
	}
	if result.ProviderRef != "GW123" {
		t.Fatalf("expected provider ref GW123, got %s", result.ProviderRef)
	}
}

func TestWebhookVerifyAndDecode(t *testing.T) {
	c := testClient("")

	inner, _ := json.Marshal(map[string]interface{}{
		"success": true,
		"code":    "PAYMENT_SUCCESS",
		"data": map[string]interface{}{
			"merchantTransactionId": "TXN9",
			"state":                 "COMPLETED",
		},
	})
	encoded := base64.StdEncoding.EncodeToString(inner)

	if err := c.VerifyWebhook(encoded, c.Sign(encoded)); err != nil {
		t.Fatalf("expected checksum to verify: %v", err)
	}
	if err := c.VerifyWebhook(encoded, "bogus###1"); err != ErrChecksumMismatch {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}

	result, err := c.DecodeWebhook(encoded)
	if err != nil {
		t.Fatalf("DecodeWebhook failed: %v", err)
	}
	if result.TransactionID != "TXN9" || result.State != StateCompleted {
		t.Fatalf("unexpected webhook result %+v", result)
	}
}
