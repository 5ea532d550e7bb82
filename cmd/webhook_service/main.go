package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/adapters/waprovider"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/config"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/logger"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/messagebroker"
	"github.com/nexcommerce/whatsapp-gateway/internal/webhook_service/middleware"
	httptransport "github.com/nexcommerce/whatsapp-gateway/internal/webhook_service/transport/http"
)

const (
	serviceName     = "webhook_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...", "port", cfg.WebhookServicePort)

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("NATS connection initialized")

	sender := buildProvider(cfg, appLogger)
	appLogger.Info("Outbound provider configured", "provider", sender.GetName())

	validate := validator.New()
	webhookHandler := httptransport.NewWebhookHandler(natsClient, appLogger, cfg.WebhookVerifyToken, cfg.WebhookSecret)
	sendHandler := httptransport.NewSendHandler(sender, appLogger, validate)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success":   true,
			"message":   "WhatsApp gateway is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	r.Route("/webhook", func(webhookRouter chi.Router) {
		webhookRouter.Get("/", webhookHandler.HandleVerification)
		webhookRouter.Post("/", webhookHandler.HandleDelivery)
	})

	r.Route("/api/whatsapp", func(apiRouter chi.Router) {
		apiRouter.Use(middleware.APIKeyAuth(cfg.APISecretKey, appLogger))
		sendHandler.RegisterRoutes(apiRouter)
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebhookServicePort),
		Handler: r,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebhookServiceMetricsPort),
		Handler: metricsMux,
	}

	go func() {
		appLogger.Info("Metrics server listening", "port", cfg.WebhookServiceMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server failed", "error", err)
		}
	}()

	go func() {
		appLogger.Info("HTTP server listening", "port", cfg.WebhookServicePort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutdown signal received, stopping servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Metrics server shutdown failed", "error", err)
	}
	appLogger.Info("Service stopped")
}

func buildProvider(cfg *config.Config, appLogger *slog.Logger) waprovider.Sender {
	switch cfg.WhatsAppProvider {
	case "twilio":
		return waprovider.NewTwilioProvider(appLogger, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, nil)
	case "webjs":
		return waprovider.NewWebJSProvider(appLogger, cfg.WebJSBaseURL, nil)
	case "mock":
		return waprovider.NewMockProvider(appLogger)
	default:
		return waprovider.NewCloudProvider(appLogger, cfg.WhatsAppAPIBaseURL, cfg.WhatsAppPhoneNumberID, cfg.WhatsAppAccessToken, nil)
	}
}
