package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mydesiresalon/salon-api/internal/api/router"
	"github.com/mydesiresalon/salon-api/internal/appointments"
	"github.com/mydesiresalon/salon-api/internal/attendants"
	appconfig "github.com/mydesiresalon/salon-api/internal/config"
	"github.com/mydesiresalon/salon-api/internal/notify"
	"github.com/mydesiresalon/salon-api/internal/observability/metrics"
	"github.com/mydesiresalon/salon-api/internal/users"
	"github.com/mydesiresalon/salon-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon-api server", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)

	// Storage: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		userRepo      users.Repository
		attendantRepo attendants.Repository
		apptRepo      appointments.Repository
		notifyStore   notify.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		userRepo = users.NewPostgresRepository(pool)
		attendantRepo = attendants.NewPostgresRepository(pool)
		apptRepo = appointments.NewPostgresRepository(pool)
		notifyStore = notify.NewPostgresStore(pool)
		logger.Info("using postgres storage")
	} else {
		userRepo = users.NewInMemoryRepository()
		attendantRepo = attendants.NewInMemoryRepository()
		apptRepo = appointments.NewInMemoryRepository()
		notifyStore = notify.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Notification channels
	channels := buildChannels(ctx, cfg, logger)
	dispatcher := notify.NewDispatcher(notifyStore, channels, logger, bookingMetrics)

	// Delivery queue: Redis in production, in-process channel otherwise.
	var queue notify.Queue
	if !cfg.UseMemoryQueue && cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		queue = notify.NewRedisQueue(client, cfg.NotifyQueueKey)
		logger.Info("using redis notification queue", "key", cfg.NotifyQueueKey)
	} else {
		queue = notify.NewMemoryQueue(0)
		logger.Info("using in-memory notification queue")
	}
	dispatcher = dispatcher.WithQueue(queue)

	// Delivery workers
	for i := 0; i < cfg.NotifyWorkerCount; i++ {
		worker := notify.NewWorker(queue, dispatcher, logger)
		go worker.Run(ctx)
	}

	// Core service and handlers
	apptService := appointments.NewService(
		apptRepo,
		appointments.NewUserDirectory(userRepo),
		appointments.NewAttendantDirectory(attendantRepo),
		dispatcher,
		logger,
		appointments.WithMetrics(bookingMetrics),
		appointments.WithAdminEmail(cfg.AdminNotifyEmail),
	)

	routerCfg := &router.Config{
		Logger:              logger,
		UsersHandler:        users.NewHandler(userRepo, cfg.AuthJWTSecret, cfg.AuthTokenTTL, logger),
		AttendantsHandler:   attendants.NewHandler(attendantRepo, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		NotifyHandler:       notify.NewHandler(notifyStore, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
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
	cancel() // stop notification workers

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// buildChannels wires every contact method the booking form offers. Email
// prefers SendGrid, falls back to SES, then to the log-only stub; SMS uses
// Twilio or its stub. Phone and whatsapp have no provider and fail closed.
func buildChannels(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) []notify.Channel {
	var email notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		email = sg
		logger.Info("email delivery via sendgrid")
	} else if ses := buildSESSender(ctx, cfg, logger); ses != nil {
		email = ses
		logger.Info("email delivery via ses")
	} else {
		email = notify.NewStubEmailSender(logger)
		logger.Warn("no email provider configured, using stub sender")
	}

	var sms notify.SMSSender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sms = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
		logger.Info("sms delivery via twilio")
	} else {
		sms = notify.NewStubSMSSender(logger)
		logger.Warn("no sms provider configured, using stub sender")
	}

	return []notify.Channel{
		notify.NewEmailChannel(email, ""),
		notify.NewSMSChannel(sms),
		notify.PhoneChannel{},
		notify.WhatsappChannel{},
	}
}

func buildSESSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *notify.SESSender {
	if cfg.SESFromEmail == "" {
		return nil
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		return nil
	}
	return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SESFromName,
	}, logger)
}
