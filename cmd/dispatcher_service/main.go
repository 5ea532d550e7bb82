package main

import (
	"context"
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/adapters/waprovider"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/app"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/domain"
	"github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/repository/postgres"
	httptransport "github.com/nexcommerce/whatsapp-gateway/internal/dispatcher_service/transport/http"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/config"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/database"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/logger"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/messagebroker"
)

const (
	serviceName     = "dispatcher_service"
	inboundSubject  = "whatsapp.inbound.events"
	queueGroup      = "dispatcher_group"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger = appLogger.With("service", serviceName)
	appLogger.Info("Starting service...")

	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"nats_url", cfg.NATSURL,
		"postgres_dsn_present", cfg.PostgresDSN != "",
		"provider", cfg.WhatsAppProvider,
		"metrics_port", cfg.DispatcherServiceMetricsPort,
	)

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("NATS connection initialized")

	var dispatcherOpts []app.Option
	var replyLogRepo domain.ReplyLogRepository
	if cfg.PostgresDSN != "" {
		dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		appLogger.Info("Database connection pool initialized")
		replyLogRepo = postgres.NewPgReplyLogRepository(dbPool)
		dispatcherOpts = append(dispatcherOpts, app.WithReplyLog(replyLogRepo))
	} else {
		appLogger.Info("No Postgres DSN configured, reply log persistence disabled")
	}

	sender := buildProvider(cfg, appLogger)
	appLogger.Info("Outbound provider configured", "provider", sender.GetName())

	eventsChan := make(chan coredomain.InboundBatchEvent, 100)
	consumer := app.NewEventConsumer(natsClient, appLogger, eventsChan)
	dispatcher := app.NewDispatcher(sender, appLogger, dispatcherOpts...)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("Starting NATS consumer", "subject", inboundSubject, "queue_group", queueGroup)
		return consumer.StartConsuming(groupCtx, inboundSubject, queueGroup)
	})

	g.Go(func() error {
		appLogger.Info("Starting dispatch worker...")
		for {
			select {
			case event := <-eventsChan:
				if len(event.Messages) > 0 {
					dispatcher.DispatchMessages(groupCtx, event.Messages, event.Contacts)
				}
				if len(event.Statuses) > 0 {
					dispatcher.DispatchStatuses(groupCtx, event.Statuses)
				}
			case <-groupCtx.Done():
				appLogger.Info("Dispatch worker stopping", "reason", groupCtx.Err())
				return nil
			}
		}
	})

	if replyLogRepo != nil {
		r := chi.NewRouter()
		r.Use(chimiddleware.RequestID)
		r.Use(chimiddleware.Recoverer)
		r.Use(chimiddleware.Timeout(30 * time.Second))
		httptransport.NewReplyLogHandler(replyLogRepo, appLogger).RegisterRoutes(r)

		queryServer := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.DispatcherServicePort),
			Handler: r,
		}
		g.Go(func() error {
			appLogger.Info("Reply-log query API listening", "port", cfg.DispatcherServicePort)
			if err := queryServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return queryServer.Shutdown(shutdownCtx)
		})
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.DispatcherServiceMetricsPort),
		Handler: metricsMux,
	}

	g.Go(func() error {
		appLogger.Info("Metrics server listening", "port", cfg.DispatcherServiceMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service exited with error", "error", err)
		os.Exit(1)
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
