package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turnoflow/booking-platform/cmd/mainconfig"
	"github.com/turnoflow/booking-platform/internal/api/router"
	"github.com/turnoflow/booking-platform/internal/app/bootstrap"
	"github.com/turnoflow/booking-platform/internal/availability"
	"github.com/turnoflow/booking-platform/internal/booking"
	appconfig "github.com/turnoflow/booking-platform/internal/config"
	"github.com/turnoflow/booking-platform/internal/notify"
	"github.com/turnoflow/booking-platform/internal/observability/metrics"
	"github.com/turnoflow/booking-platform/internal/webchat"
	"github.com/turnoflow/booking-platform/internal/workflow"
	"github.com/turnoflow/booking-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	// Stores.
	catalogStore := bootstrap.BuildCatalogStore(dynamoClient, cfg, logger)
	bookingStore := bootstrap.BuildBookingStore(dynamoClient, cfg, logger)
	scheduleRepo := bootstrap.BuildScheduleRepository(dynamoClient, cfg, logger)
	workflowStore := bootstrap.BuildWorkflowStore(dynamoClient, cfg, logger)
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	conversationStore := bootstrap.BuildConversationStore(dynamoClient, redisClient, cfg, logger)

	// Optional collaborators.
	gateway := bootstrap.BuildPaymentsGateway(cfg, logger)
	ledger, ledgerDB, err := bootstrap.BuildLedger(cfg, logger)
	if err != nil {
		logger.Error("failed to open events ledger", "error", err)
		os.Exit(1)
	}
	if ledgerDB != nil {
		defer func() { _ = ledgerDB.Close() }()
	}

	// Notifications.
	emailSender := bootstrap.BuildEmailSender(awsCfg, cfg, logger)
	notifyQueue := bootstrap.BuildNotifyQueue(awsCfg, cfg, logger)
	notifier := notify.NewService(emailSender, notifyQueue, logger)
	var dispatcher *notify.Dispatcher
	if notifyQueue != nil {
		dispatcher = notify.NewDispatcher(notifyQueue, emailSender, cfg.NotifyWorkerCount, cfg.NotifyReceiveWaitSec, logger)
		dispatcher.Start(ctx)
	}

	metricsHandler, bookingMetrics, chatMetrics := setupMetrics()

	// Services.
	bookingService := booking.NewService(booking.Config{
		Tenants:   catalogStore.Tenants(),
		Services:  catalogStore.Services(),
		Providers: catalogStore.Providers(),
		Store:     bookingStore,
		Payments:  gateway,
		Ledger:    ledger,
		Notifier:  notifier,
		Metrics:   bookingMetrics,
		Logger:    logger,
	})
	availabilityService := availability.NewService(availability.Config{
		Services:            catalogStore.Services(),
		Providers:           catalogStore.Providers(),
		Repo:                scheduleRepo,
		Bookings:            bookingService,
		SlotIntervalMinutes: cfg.SlotIntervalMinutes,
		Logger:              logger,
	})
	toolRegistry := workflow.NewRegistry(
		catalogStore.Services(),
		catalogStore.Providers(),
		catalogStore.FAQs(),
		availabilityService,
		bookingService,
		nil,
	)
	engine := workflow.NewEngine(workflow.EngineConfig{
		Workflows:     workflowStore,
		Conversations: conversationStore,
		Registry:      toolRegistry,
		Services:      catalogStore.Services(),
		Providers:     catalogStore.Providers(),
		FAQs:          catalogStore.FAQs(),
		Metrics:       chatMetrics,
		Logger:        logger,
	})
	manager := workflow.NewManager(workflowStore, logger, nil)

	r := router.New(&router.Config{
		Logger:         logger,
		Availability:   availability.NewHandler(availabilityService, logger),
		Bookings:       booking.NewHandler(bookingService, logger),
		Workflows:      workflow.NewHandler(engine, manager, logger),
		Webchat:        webchat.NewHandler(engine, logger),
		MetricsHandler: metricsHandler,

		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		WebchatRatePerSecond: cfg.WebchatRatePerSecond,
		WebchatRateBurst:     cfg.WebchatRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if dispatcher != nil {
		dispatcher.Stop()
	}

	logger.Info("server stopped")
}

// setupMetrics builds the Prometheus registry and the instruments shared by
// the booking and chat services.
func setupMetrics() (http.Handler, *metrics.BookingMetrics, *metrics.ChatMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	bookingMetrics := metrics.NewBookingMetrics(registry)
	chatMetrics := metrics.NewChatMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), bookingMetrics, chatMetrics
}
