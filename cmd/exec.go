package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lightning-pass/config"
	"lightning-pass/internal/handlers"
	"lightning-pass/internal/services"
	"lightning-pass/internal/services/gateway"
	"lightning-pass/internal/services/notify"
	_ "lightning-pass/migrations"
	"lightning-pass/monitoring"
	"lightning-pass/security"
	"lightning-pass/utils"
)

func Start() error {
	app := pocketbase.New()
	cfg := config.LoadConfig()

	redisClient, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel)

	// The card processor sits behind the gateway port; the sandbox is
	// the stand-in until a production client is configured.
	gw := gateway.NewSandbox()
	if cfg.GatewaySecretKey != "" && cfg.Environment != "development" {
		slog.Warn("no production gateway client configured, using sandbox")
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.SMSAccountID != "" && cfg.SMSAuthToken != "" && cfg.SMSFrom != "" {
		notifier = notify.NewSMSNotifier(cfg.SMSAccountID, cfg.SMSAuthToken, cfg.SMSFrom)
		slog.Info("sms notifier enabled", "from", cfg.SMSFrom)
	}
	monitor := monitoring.NewMonitor()
	cache := services.NewPurchaseCache(redisClient, cfg.PurchaseContextTTL)

	fulfillment := services.NewFulfillmentService(
		app, gw, notifier, cache, monitor,
		cfg.PlatformFeePercent, cfg.PassValidity, cfg.GatewayWebhookSecret,
	)
	redemption := services.NewRedemptionService(app)
	refunds := services.NewRefundService(app, gw, notifier, monitor)
	payouts := services.NewPayoutService(app, gw, monitor)

	purchaseHandler := handlers.NewPurchaseHandler(fulfillment)
	passHandler := handlers.NewPassHandler(redemption)
	refundHandler := handlers.NewRefundHandler(app, refunds)
	venueHandler := handlers.NewVenueHandler(app)
	templateHandler := handlers.NewTemplateHandler(app)
	adminHandler := handlers.NewAdminHandler(app, payouts)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute)

	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Async processor notifications are observational; losing the feed
	// never blocks fulfillment.
	if cfg.PNSubscribeKey != "" {
		listener, err := services.NewGatewayEventListener(services.ListenerConfig{
			SubscribeKey: cfg.PNSubscribeKey,
			SecretKey:    cfg.PNSecretKey,
			UUID:         cfg.PNUUID,
			Channel:      cfg.PNChannel,
		}, monitor)
		if err != nil {
			slog.Warn("gateway event listener disabled", "error", err)
		} else {
			go listener.Run(ctx)
		}
	}

	if cfg.EnableMetrics {
		go serveMetrics(cfg.MetricsPort)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		throttled := e.Router.Group("/api/v1")
		throttled.BindFunc(rateLimiter.Middleware())

		// Purchases
		throttled.POST("/purchases/initiate", purchaseHandler.InitiatePurchase)
		throttled.POST("/purchases/confirm", purchaseHandler.ConfirmPurchase)

		// Redemption
		throttled.GET("/passes/{passId}/validate", passHandler.ValidatePass)
		throttled.POST("/passes/{passId}/redeem", passHandler.RedeemPass)

		// Refunds
		throttled.POST("/refunds/request", refundHandler.RequestRefund)
		throttled.GET("/venues/{venueId}/refund-requests", refundHandler.ListRefundRequests)
		throttled.POST("/refunds/{requestId}/respond", refundHandler.RespondToRefund)
		throttled.POST("/refunds/venue", refundHandler.VenueRefund)

		// Venues
		throttled.GET("/venues", venueHandler.ListVenues)
		throttled.GET("/venues/{venueId}", venueHandler.GetVenue)
		throttled.POST("/venues", venueHandler.CreateVenue)
		throttled.POST("/venues/{venueId}/approve", venueHandler.ApproveVenue)
		throttled.POST("/venues/{venueId}/reject", venueHandler.RejectVenue)
		throttled.PATCH("/venues/{venueId}/pricing", venueHandler.UpdatePricing)
		throttled.POST("/venues/{venueId}/activate", venueHandler.ActivateVenue)
		throttled.POST("/venues/{venueId}/deactivate", venueHandler.DeactivateVenue)
		throttled.GET("/venues/{venueId}/stats", venueHandler.VenueStats)

		// Pass templates
		throttled.GET("/venues/{venueId}/templates", templateHandler.ListTemplates)
		throttled.POST("/venues/{venueId}/templates", templateHandler.CreateTemplate)
		throttled.PATCH("/templates/{templateId}", templateHandler.UpdateTemplate)

		// Admin
		throttled.GET("/admin/settings/discount", adminHandler.GetDiscount)
		throttled.PUT("/admin/settings/discount", adminHandler.SetDiscount)
		throttled.GET("/admin/overview", adminHandler.SystemOverview)
		throttled.GET("/venues/{venueId}/revenue", adminHandler.VenueRevenue)
		throttled.POST("/admin/payouts/run", adminHandler.RunPayout)

		// Webhook stays outside the throttle group: the processor
		// retries aggressively and authenticates by signature.
		e.Router.POST("/api/v1/webhooks/gateway", purchaseHandler.GatewayWebhook)

		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		slog.Info("routes registered", "env", cfg.Environment)
		return e.Next()
	})

	return app.Start()
}

func serveMetrics(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("metrics server stopped", "error", err)
	}
}

func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	slog.Info("shutdown signal received")
	cancel()
}
