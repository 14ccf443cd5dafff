package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/lukas99o/restaurant-api/libs/db"
	"github.com/lukas99o/restaurant-api/libs/httpx"
	"github.com/lukas99o/restaurant-api/libs/kafkax"
	otelx "github.com/lukas99o/restaurant-api/libs/otel"
	"github.com/lukas99o/restaurant-api/libs/runtime"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/consumer"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/grpcserver"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/handlers"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/inbox"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/migrate"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/outbox"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/retention"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadSettings()
	logger := runtime.NewLogger(cfg.Service, cfg.LogLevel)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, cfg.Telemetry)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		store     reservation.Store
		pool      *db.Pool
		inboxRepo *inbox.Repository
		checks    []runtime.ReadyCheck
	)
	workers := newWorkerGroup(ctx)
	defer workers.Close(func() { pool.Close() })
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store; bookings are lost on restart")
		store = storage.NewMemoryStore()
	default:
		pool, err = db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: int32(cfg.DBMaxConns), ApplicationName: cfg.Service})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			os.Exit(1)
		}

		if cfg.MigrateOnBoot {
			if err := migrate.Up(ctx, pool, logger); err != nil {
				logger.Error("migrations failed", "err", err)
				os.Exit(1)
			}
		}

		outboxRepo := outbox.NewRepository()
		store = storage.NewPostgresStore(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:        cfg.KafkaBrokers,
			PollEvery:      2 * time.Second,
			BatchSize:      50,
			BacklogWarnAge: cfg.OutboxWarnAge,
		})
		workers.Go(publisher.Run)

		inboxRepo = inbox.NewRepository(pool)
		janitor := retention.NewJanitor(logger, cfg.RetentionEvery,
			retention.Task{Name: "outbox", Keep: cfg.EventRetention, Prune: func(ctx context.Context, cutoff time.Time) (int64, error) {
				return outboxRepo.PurgePublished(ctx, pool, cutoff)
			}},
			retention.Task{Name: "inbox", Keep: cfg.EventRetention, Prune: inboxRepo.Prune},
		)
		workers.Go(janitor.Run)
	}

	locks := reservation.NewTableLocks()
	scheduler := reservation.NewScheduler(store, logger, cfg.Scheduler, reservation.WithTableLocks(locks))
	tableAdmin := reservation.NewTableAdmin(store, logger, cfg.Scheduler, locks)

	if pool != nil && cfg.KafkaBrokers != "" && cfg.TableTopic != "" {
		tableConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topic:   cfg.TableTopic,
		}, consumer.TableAvailabilityHandler(tableAdmin, logger))
		workers.Go(tableConsumer.Run)
	}
	if cfg.KafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers), Optional: true})
	}

	limiter, limiterCheck := newLimiter(ctx, cfg, logger)
	if limiterCheck != nil {
		checks = append(checks, *limiterCheck)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewReservationHandler(scheduler, tableAdmin, logger).Register(mux, cfg.JWTSecret)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", httpx.RequestIDHeader},
			ExposedHeaders: []string{"Location", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRateLimit(limiter, logger, true),
		httpx.WithBodyLimit(64<<10),
		httpx.WithTimeout(requestTimeout(cfg.Scheduler)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "reservation")

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		os.Exit(1)
	}
	probe := func(ctx context.Context) error {
		_, err := tableAdmin.ListTables(ctx)
		return err
	}
	if pool != nil {
		probe = db.ReadyCheck(pool)
	}
	grpcSrv := grpcserver.New(logger, probe, 5*time.Second)
	workers.Go(func(ctx context.Context) {
		if err := grpcSrv.Serve(ctx, lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, srv, logger, 10*time.Second)
}
