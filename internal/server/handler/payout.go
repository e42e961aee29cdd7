package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
)

// PayoutService defines the methods the payout handler requires from the
// service layer.
type PayoutService interface {
	Request(ctx context.Context, id domain.Identity, amount decimal.Decimal, bankDetails string) (domain.PayoutRequest, error)
	List(ctx context.Context, id domain.Identity, opts domain.ListOpts) ([]domain.PayoutRequest, error)
}

// PayoutHandler serves vendor withdrawal endpoints.
type PayoutHandler struct {
	payouts PayoutService
	logger  *slog.Logger
}

// NewPayoutHandler creates a PayoutHandler with the given service and logger.
func NewPayoutHandler(payouts PayoutService, logger *slog.Logger) *PayoutHandler {
	return &PayoutHandler{payouts: payouts, logger: logger}
}

type payoutRequestBody struct {
	Amount      string `json:"amount"`
	BankDetails string `json:"bank_details"`
}

// Request records a withdrawal against the caller's wallet.
// POST /api/payouts
func (h *PayoutHandler) Request(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req payoutRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+err.Error())
		return
	}

	p, err := h.payouts.Request(r.Context(), id, amount, req.BankDetails)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayoutDTO(p))
}

// List returns the caller's payout requests (all stores for admins).
// GET /api/payouts
func (h *PayoutHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	payouts, err := h.payouts.List(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payouts": toPayoutDTOs(payouts)})
}
