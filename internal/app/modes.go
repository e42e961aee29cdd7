package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/campustribe/tribemarket/internal/archive"
	"github.com/campustribe/tribemarket/internal/server"
	"github.com/campustribe/tribemarket/internal/server/handler"
	"github.com/campustribe/tribemarket/internal/server/ws"
	"github.com/campustribe/tribemarket/internal/service"
)

// ServeMode runs the HTTP API and the WebSocket event bridge.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)
	return g.Wait()
}

// ArchiveMode runs a single cold-storage archive pass and exits. Meant
// for cron or operator-triggered runs.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.Archiver == nil {
		return fmt.Errorf("archive mode: archiver not wired (check s3 configuration)")
	}

	worker := archive.NewWorker(
		deps.Archiver,
		a.cfg.Archive.RetentionDays,
		a.cfg.Archive.Interval.Duration,
		a.logger,
	)
	return worker.Run(ctx)
}

// FullMode runs the HTTP API plus the archiver when enabled.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps)

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		worker := archive.NewWorker(
			deps.Archiver,
			a.cfg.Archive.RetentionDays,
			a.cfg.Archive.Interval.Duration,
			a.logger,
		)
		g.Go(func() error {
			return worker.RunLoop(ctx)
		})
	}

	return g.Wait()
}

// startServer builds the service layer, the handlers, and the WebSocket hub,
// then adds the HTTP server goroutines to the errgroup.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	// Services.
	storeSvc := service.NewStoreService(deps.VendorStore, deps.BalanceCache, a.logger)
	catalogSvc := service.NewCatalogService(deps.ProductStore, a.logger)
	orderSvc := service.NewOrderService(deps.OrderStore, deps.ProductStore, deps.SignalBus, a.logger)
	paymentSvc := service.NewPaymentService(deps.SettlementStore, deps.BalanceCache, deps.SignalBus, deps.Notifier, a.logger)
	fulfillmentSvc := service.NewFulfillmentService(deps.SettlementStore, deps.OrderStore, deps.BalanceCache, deps.SignalBus, deps.Notifier, a.logger)
	payoutSvc := service.NewPayoutService(deps.SettlementStore, deps.PayoutStore, deps.LockManager, deps.BalanceCache, deps.SignalBus, a.logger)

	// WebSocket hub bridging the signal bus to dashboards.
	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.logger),
		Stores:      handler.NewStoreHandler(storeSvc, a.logger),
		Products:    handler.NewProductHandler(catalogSvc, a.logger),
		Orders:      handler.NewOrderHandler(orderSvc, a.logger),
		Fulfillment: handler.NewFulfillmentHandler(fulfillmentSvc, a.logger),
		Payments:    handler.NewPaymentHandler(paymentSvc, a.cfg.Webhook.Secret, a.logger),
		Payouts:     handler.NewPayoutHandler(payoutSvc, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:          a.cfg.Server.Port,
		CORSOrigins:   a.cfg.Server.CORSOrigins,
		JWTSecret:     a.cfg.Auth.JWTSecret,
		WebhookLimit:  a.cfg.Webhook.RateLimit,
		WebhookWindow: a.cfg.Webhook.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
