// Package server assembles the HTTP API: routes, middleware chain and
// the WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/campustribe/tribemarket/internal/domain"
	"github.com/campustribe/tribemarket/internal/server/handler"
	"github.com/campustribe/tribemarket/internal/server/middleware"
	"github.com/campustribe/tribemarket/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port          int
	CORSOrigins   []string
	JWTSecret     string
	WebhookLimit  int           // webhook requests allowed per window, per client IP
	WebhookWindow time.Duration // sliding window for the webhook limit
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health      *handler.HealthHandler
	Stores      *handler.StoreHandler
	Products    *handler.ProductHandler
	Orders      *handler.OrderHandler
	Fulfillment *handler.FulfillmentHandler
	Payments    *handler.PaymentHandler
	Payouts     *handler.PayoutHandler
}

// Server is the HTTP + WebSocket API server for the marketplace.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux
// and the middleware chain wired: CORS, logging, JWT auth. limiter may
// be nil, in which case the webhook runs unthrottled.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Public catalog.
	mux.HandleFunc("GET /api/marketplace", handlers.Products.Marketplace)
	mux.HandleFunc("GET /api/products/{id}", handlers.Products.GetProduct)

	// Vendor catalog management.
	mux.HandleFunc("GET /api/products", handlers.Products.ListMine)
	mux.HandleFunc("POST /api/products", handlers.Products.CreateProduct)
	mux.HandleFunc("PUT /api/products/{id}", handlers.Products.UpdateProduct)

	// Stores.
	mux.HandleFunc("POST /api/stores", handlers.Stores.CreateStore)
	mux.HandleFunc("GET /api/stores/me", handlers.Stores.GetMine)
	mux.HandleFunc("GET /api/stores/{id}", handlers.Stores.GetStore)

	// Checkout and order reads.
	mux.HandleFunc("POST /api/orders", handlers.Orders.Checkout)
	mux.HandleFunc("GET /api/orders", handlers.Orders.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", handlers.Orders.GetOrder)

	// Fulfillment protocol.
	mux.HandleFunc("GET /api/plug/items", handlers.Fulfillment.ListStoreItems)
	mux.HandleFunc("POST /api/plug/items/{id}/mark-delivered", handlers.Fulfillment.MarkDelivered)
	mux.HandleFunc("GET /api/citizen/items", handlers.Fulfillment.ListBuyerItems)
	mux.HandleFunc("POST /api/citizen/items/{id}/confirm-received", handlers.Fulfillment.ConfirmReceived)
	mux.HandleFunc("POST /api/citizen/items/{id}/raise-dispute", handlers.Fulfillment.RaiseDispute)
	mux.HandleFunc("GET /api/admin/disputes", handlers.Fulfillment.ListDisputes)
	mux.HandleFunc("POST /api/admin/items/{id}/resolve-refund", handlers.Fulfillment.ResolveRefund)
	mux.HandleFunc("POST /api/admin/items/{id}/resolve-release", handlers.Fulfillment.ResolveRelease)

	// Payment provider webhook, rate limited separately since it is the
	// only unauthenticated write endpoint.
	webhook := http.Handler(http.HandlerFunc(handlers.Payments.Webhook))
	if limiter != nil && cfg.WebhookLimit > 0 {
		webhook = middleware.RateLimit(limiter, cfg.WebhookLimit, cfg.WebhookWindow)(webhook)
	}
	mux.Handle("POST /api/payments/webhook", webhook)

	// Payouts.
	mux.HandleFunc("POST /api/payouts", handlers.Payouts.Request)
	mux.HandleFunc("GET /api/payouts", handlers.Payouts.List)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Auth(cfg.JWTSecret, publicRoute)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// publicRoute reports whether the request needs no authentication:
// health, the public catalog, the provider webhook (verified by
// signature instead) and the WebSocket feed.
func publicRoute(r *http.Request) bool {
	path := r.URL.Path
	switch {
	case path == "/api/health",
		path == "/api/marketplace",
		path == "/api/payments/webhook",
		path == "/ws":
		return true
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/products/"):
		return true
	}
	return false
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
