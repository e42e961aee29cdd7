package handler

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campustribe/tribemarket/internal/domain"
)

const webhookSecret = "provider-secret"

func signBody(body string) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookFundsOrder(t *testing.T) {
	svc := &fakePaymentService{order: domain.Order{ID: "ord-1", PaymentRef: "TRB-abc", IsPaid: true}}
	h := NewPaymentHandler(svc, webhookSecret, testLogger())

	body := `{"event":"charge.completed","data":{"status":"successful","tx_ref":"TRB-abc","amount":36000}}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signBody(body))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	if svc.gotEvent.Event != "charge.completed" || svc.gotEvent.Reference != "TRB-abc" {
		t.Errorf("service got event %+v", svc.gotEvent)
	}
	if svc.gotEvent.Status != "successful" || svc.gotEvent.Amount != "36000" {
		t.Errorf("service got status %q amount %q", svc.gotEvent.Status, svc.gotEvent.Amount)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if resp["order_id"] != "ord-1" || resp["is_paid"] != true {
		t.Errorf("response = %v", resp)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &fakePaymentService{}
	h := NewPaymentHandler(svc, webhookSecret, testLogger())

	body := `{"event":"charge.completed","data":{"status":"successful","tx_ref":"TRB-abc","amount":36000}}`

	tests := []struct {
		name string
		sig  string
	}{
		{name: "missing signature", sig: ""},
		{name: "wrong signature", sig: signBody("something else")},
		{name: "not hex", sig: "zzzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
			if tt.sig != "" {
				req.Header.Set("X-Webhook-Signature", tt.sig)
			}
			rec := httptest.NewRecorder()
			h.Webhook(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if svc.gotEvent.Reference != "" {
				t.Error("service called despite rejected signature")
			}
		})
	}
}

func TestWebhookNoSecretSkipsVerification(t *testing.T) {
	svc := &fakePaymentService{order: domain.Order{ID: "ord-1"}}
	h := NewPaymentHandler(svc, "", testLogger())

	body := `{"event":"charge.completed","data":{"status":"successful","tx_ref":"TRB-abc","amount":36000}}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestWebhookFailedChargeAcked(t *testing.T) {
	svc := &fakePaymentService{}
	h := NewPaymentHandler(svc, "", testLogger())

	body := `{"event":"charge.completed","data":{"status":"failed","tx_ref":"TRB-abc","amount":36000}}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	if svc.gotEvent.Status != "failed" {
		t.Errorf("service got status %q, want failed", svc.gotEvent.Status)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if _, ok := resp["order_id"]; ok {
		t.Errorf("failed charge must not report a funded order, got %v", resp)
	}
}

func TestWebhookUnknownReference(t *testing.T) {
	svc := &fakePaymentService{err: fmt.Errorf("service: no order for reference: %w", domain.ErrNotFound)}
	h := NewPaymentHandler(svc, "", testLogger())

	body := `{"event":"charge.completed","data":{"status":"successful","tx_ref":"TRB-missing","amount":100}}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	h := NewPaymentHandler(&fakePaymentService{}, "", testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Webhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
