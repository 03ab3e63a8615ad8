// File: medibook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"medibook/config"
	"medibook/cron"
	historyRepo "medibook/database/repository/history"
	"medibook/handlers"
	"medibook/middleware"
	"medibook/routes"
	"medibook/services/catalog"
	"medibook/services/payment"
	"medibook/services/upstream"
	"medibook/services/wizard"
	"medibook/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitSessionCache()
	utils.InitHistoryCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Upstream appointment API: mocked in demo mode, REST otherwise.
	var upstreamClient upstream.Client
	if config.AppConfig.UseMockUpstream {
		logger.Sugar().Info("main: using mock upstream appointment API")
		upstreamClient = upstream.NewMockClient()
	} else {
		upstreamClient = upstream.NewRESTClient(
			config.AppConfig.UpstreamBaseURL,
			config.AppConfig.UpstreamTimeout,
		)
	}

	// Repositories and services.
	histRepo := historyRepo.NewRedisHistoryRepo(utils.GetHistoryCacheClient())

	catalogService := &catalog.DefaultCatalogService{
		Upstream: upstreamClient,
	}

	reminderScheduler := cron.NewAsynqReminderScheduler()
	cron.InitReminderWorker()

	wizardService := wizard.NewDefaultWizardService(
		catalogService,
		upstreamClient,
		histRepo,
		reminderScheduler,
		utils.GetSessionCacheClient(),
	)

	paymentHandler := payment.NewMockPaymentHandler(logger)

	wizardHandler := handlers.NewWizardHandler(wizardService, logger)
	confirmationHandler := handlers.NewConfirmationHandler(histRepo, paymentHandler, logger)

	// Register routes.
	routes.RegisterRoutes(router, wizardHandler, confirmationHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
