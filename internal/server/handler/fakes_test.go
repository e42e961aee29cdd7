package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/shopspring/decimal"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/server/middleware"
	"github.com/campustribe/tribemarket/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withIdentity injects an authenticated identity the way the auth
// middleware would.
func withIdentity(r *http.Request, id domain.Identity) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), id))
}

// serve runs a single request against a mux so path parameters resolve.
func serve(pattern string, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

type fakePaymentService struct {
	gotEvent service.PaymentEvent
	order    domain.Order
	err      error
}

func (f *fakePaymentService) HandleEvent(_ context.Context, ev service.PaymentEvent) (domain.Order, error) {
	f.gotEvent = ev
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return f.order, nil
}

type fakeOrderService struct {
	gotInput service.CheckoutInput
	order    domain.Order
	err      error
}

func (f *fakeOrderService) Checkout(_ context.Context, _ domain.Identity, in service.CheckoutInput) (domain.Order, error) {
	f.gotInput = in
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return f.order, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, _ domain.Identity, _ string) (domain.Order, error) {
	if f.err != nil {
		return domain.Order{}, f.err
	}
	return f.order, nil
}

func (f *fakeOrderService) ListOrders(_ context.Context, _ domain.Identity, _ domain.ListOpts) ([]domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Order{f.order}, nil
}

type fakePayoutService struct {
	payout domain.PayoutRequest
	err    error
}

func (f *fakePayoutService) Request(_ context.Context, _ domain.Identity, amount decimal.Decimal, bankDetails string) (domain.PayoutRequest, error) {
	if f.err != nil {
		return domain.PayoutRequest{}, f.err
	}
	p := f.payout
	p.Amount = amount
	p.BankDetails = bankDetails
	return p, nil
}

func (f *fakePayoutService) List(_ context.Context, _ domain.Identity, _ domain.ListOpts) ([]domain.PayoutRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []domain.PayoutRequest{f.payout}, nil
}

var (
	_ PaymentService = (*fakePaymentService)(nil)
	_ OrderService   = (*fakeOrderService)(nil)
	_ PayoutService  = (*fakePayoutService)(nil)
)
