package main

import (
	"context"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mesto-barbershop/notifybot/internal/bot"
	"github.com/mesto-barbershop/notifybot/internal/notify"
	"github.com/mesto-barbershop/notifybot/internal/outbox"
	"github.com/mesto-barbershop/notifybot/internal/reconcile"
	"github.com/mesto-barbershop/notifybot/internal/session"
	"github.com/mesto-barbershop/notifybot/internal/storage"
	"github.com/mesto-barbershop/notifybot/internal/yclients"
	"github.com/mesto-barbershop/notifybot/libs/config"
	"github.com/mesto-barbershop/notifybot/libs/db"
	"github.com/mesto-barbershop/notifybot/libs/httpx"
	"github.com/mesto-barbershop/notifybot/libs/kafkax"
	otelx "github.com/mesto-barbershop/notifybot/libs/otel"
	"github.com/mesto-barbershop/notifybot/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "notifybot")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema migration failed", "err", err)
		panic(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.String("REDIS_ADDR", "localhost:6379"),
		Password: config.String("REDIS_PASSWORD", ""),
		DB:       config.Int("REDIS_DB", 0),
	})
	defer func() { _ = rdb.Close() }()

	botToken, err := config.RequiredString("BOT_TOKEN")
	if err != nil {
		panic(err)
	}
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		logger.Error("telegram auth failed", "err", err)
		panic(err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)

	partnerToken, err := config.RequiredString("YCLIENTS_PARTNER_TOKEN")
	if err != nil {
		panic(err)
	}
	userToken, err := config.RequiredString("YCLIENTS_USER_TOKEN")
	if err != nil {
		panic(err)
	}
	companyID, err := config.RequiredString("YCLIENTS_COMPANY_ID")
	if err != nil {
		panic(err)
	}
	source := yclients.New(partnerToken, userToken, companyID)

	shop := notify.Shop{
		Name:       config.String("BARBERSHOP_NAME", "Место"),
		Address:    config.String("BARBERSHOP_ADDRESS", "ул. Войстроченко, 10"),
		Phone:      config.String("BARBERSHOP_PHONE", "+7 (4832) 377-888"),
		BookingURL: config.String("YCLIENTS_BOOKING_URL", "https://n1729941.yclients.com"),
	}

	clientsRepo := storage.NewClientsRepository(pool)
	staffRepo := storage.NewStaffRepository(pool)
	trackedRepo := storage.NewTrackedRepository(pool)
	notifRepo := storage.NewNotificationsRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	limiter := notify.NewSendLimiter(rdb,
		config.Int("SEND_LIMIT_PER_MINUTE", 20), time.Minute)
	renderer := notify.NewRenderer(shop)
	notifier := notify.NewTelegramNotifier(api, renderer, limiter, logger)

	reconciler := reconcile.New(source, trackedRepo, notifRepo, clientsRepo, staffRepo,
		notifier, outbox.NewSink(outboxRepo, logger), logger, reconcile.Config{
			RescheduleThreshold: config.Duration("RESCHEDULE_THRESHOLD", 15*time.Minute),
		})
	poller := reconcile.NewPoller(reconciler, logger,
		config.Duration("CHECK_INTERVAL", 30*time.Second))
	go poller.Run(ctx)

	sessions := session.NewRedisStore(rdb, config.Duration("SESSION_TTL", 10*time.Minute))
	tgBot := bot.New(api, clientsRepo, staffRepo, trackedRepo, sessions, source, logger, bot.Config{
		Shop:      shop,
		StaffCode: config.String("STAFF_SECRET_CODE", ""),
		ShopSlug:  config.String("BARBERSHOP_SLUG", "mesto-barbershop"),
	})
	go func() {
		if err := tgBot.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("bot loop stopped", "err", err)
		}
	}()

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}},
	}
	if kafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	wrapped := otelhttp.NewHandler(handler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           wrapped,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
