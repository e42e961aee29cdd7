package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/service"
)

// PaymentService defines the methods the payment handler requires from
// the service layer.
type PaymentService interface {
	HandleEvent(ctx context.Context, ev service.PaymentEvent) (domain.Order, error)
}

// PaymentHandler ingests payment provider webhooks.
type PaymentHandler struct {
	payments      PaymentService
	webhookSecret string
	logger        *slog.Logger
}

// NewPaymentHandler creates a PaymentHandler. When webhookSecret is set,
// the provider signature header is verified before any processing.
func NewPaymentHandler(payments PaymentService, webhookSecret string, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments:      payments,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

type webhookRequest struct {
	Event string `json:"event"`
	Data  struct {
		Status string      `json:"status"`
		TxRef  string      `json:"tx_ref"`
		Amount json.Number `json:"amount"`
	} `json:"data"`
}

// Webhook processes one provider notification. The response is always
// 200 for handled events so the provider stops retrying; an unknown
// reference is a 404 so misrouted notifications surface.
// POST /api/payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	if h.webhookSecret != "" && !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		h.logger.WarnContext(r.Context(), "webhook signature rejected",
			slog.String("remote_addr", r.RemoteAddr),
		)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	o, err := h.payments.HandleEvent(r.Context(), service.PaymentEvent{
		Event:     req.Event,
		Status:    req.Data.Status,
		Reference: req.Data.TxRef,
		Amount:    req.Data.Amount.String(),
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	resp := map[string]any{"status": "ok"}
	if o.ID != "" {
		resp["order_id"] = o.ID
		resp["is_paid"] = o.IsPaid
	}
	writeJSON(w, http.StatusOK, resp)
}

// verifySignature checks the HMAC-SHA512 hex signature the provider
// computes over the raw body.
func (h *PaymentHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
