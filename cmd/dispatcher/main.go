package main

// @title           Service Endpoint Dispatch API
// @version         1.0
// @description     Registry of named HTTP endpoints and a dispatcher that invokes them with per-call timeouts and classified failures.
// @termsOfService  http://swagger.io/terms/
// @contact.name   API Support
// @contact.url    http://www.example.com/support
// @contact.email  support@example.com
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.basic  BasicAuth

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/Alwanly/service-endpoint-dispatch/docs/dispatcher"
	"github.com/Alwanly/service-endpoint-dispatch/internal/config"
	"github.com/Alwanly/service-endpoint-dispatch/internal/dispatcher"
	"github.com/Alwanly/service-endpoint-dispatch/internal/registry"
	"github.com/Alwanly/service-endpoint-dispatch/internal/server/endpoint/handler"
	authentication "github.com/Alwanly/service-endpoint-dispatch/pkg/auth"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/database"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/deps"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/metrics"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/middleware"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/poll"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/pubsub"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/retry"
	swagger "github.com/gofiber/swagger"
)

func main() {
	log, err := logger.NewLoggerFromEnv("dispatcher")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting dispatcher service")

	cfg, err := config.LoadDispatcherConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.Info("configuration loaded",
		logger.String("server_addr", cfg.ServerAddr),
		logger.String("database_path", cfg.DatabasePath),
		logger.Duration("request_timeout", cfg.RequestTimeout),
		logger.Duration("sync_interval", cfg.SyncInterval),
	)

	instanceID := uuid.Must(uuid.NewV7()).String()

	mid := middleware.NewAuthMiddleware(middleware.SetBasicAuth(&authentication.BasicAuthTConfig{
		ReaderUsername: cfg.ReaderUsername,
		ReaderPassword: cfg.ReaderPassword,
		AdminUsername:  cfg.AdminUsername,
		AdminPassword:  cfg.AdminPassword,
	}))
	log.Info("authentication initialized")

	db, err := database.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database initialized", logger.String("path", cfg.DatabasePath))

	if err := database.RunMigrations(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}
	log.Info("database migrations applied successfully")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(promReg)

	reg := registry.New(log.Component("registry"))
	disp := dispatcher.New(reg, &http.Client{}, log.Component("dispatcher"),
		dispatcher.Config{Timeout: cfg.RequestTimeout},
		dispatcher.WithMetrics(collector),
	)

	app := fiber.New(fiber.Config{
		AppName:               "Endpoint Dispatch Service",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.CanonicalLoggerMiddleware(log))
	app.Use(middleware.RateLimit(middleware.RateLimitConfig{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := deps.App{
		Fiber:      app,
		Database:   db,
		Logger:     log,
		Middleware: mid,
		Registry:   reg,
		Dispatcher: disp,
		Metrics:    collector,
		Gatherer:   promReg,
	}

	if cfg.RedisEnabled() {
		redisCfg := pubsub.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
		backoff := retry.DefaultConfig()
		backoff.MaxRetries = cfg.StartupMaxRetries
		backoff.InitialBackoff = cfg.StartupInitialBackoff
		backoff.OnRetry = func(attempt int, err error, wait time.Duration) {
			log.WithError(err).Warn("redis not ready, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("wait", wait))
		}

		var redisPub pubsub.PubSub
		err := retry.WithExponentialBackoff(ctx, backoff, func(ctx context.Context) error {
			var err error
			redisPub, err = pubsub.NewRedisPubSub(ctx, redisCfg, log)
			return err
		})
		if err != nil {
			log.WithError(err).Error("Failed to initialize Redis pub/sub, continuing in poll-only mode",
				logger.String("impact", "endpoint_changes_via_polling_only"),
				logger.String("mode", "poll-only"))
		} else {
			deps.Pub = redisPub
			log.Info("Redis pub/sub initialized successfully",
				logger.String("addr", cfg.RedisAddr()),
				logger.String("mode", "hybrid_push_pull"))
			defer redisPub.Close()
		}
	} else {
		log.Info("no Redis configuration provided; skipping pub/sub initialization")
	}

	h := handler.NewHandler(deps, cfg, instanceID)

	if cfg.EndpointsFile != "" {
		eps, err := config.LoadEndpointsFile(cfg.EndpointsFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load endpoints file")
		}
		if _, err := h.UseCase.Seed(ctx, eps); err != nil {
			log.WithError(err).Warn("some endpoints could not be seeded")
		}
	}

	if err := h.UseCase.Sync(ctx); err != nil {
		log.WithError(err).Fatal("failed to load stored endpoints")
	}
	log.Info("endpoint registry loaded", logger.Int(logger.FieldCount, reg.Len()))

	poller := poll.NewPoller(log.Component("poller"))
	if err := poller.RegisterTask("endpoint_sync", h.UseCase.Sync, poll.TaskConfig{Interval: cfg.SyncInterval}); err != nil {
		log.WithError(err).Fatal("failed to register sync task")
	}

	app.Get("/swagger/*", swagger.HandlerDefault)

	gErr, gCtx := errgroup.WithContext(ctx)

	gErr.Go(func() error {
		log.Info("dispatcher service is running", logger.String("address", cfg.ServerAddr))
		if err := app.Listen(cfg.ServerAddr); err != nil {
			cancel()
			return err
		}
		return nil
	})

	gErr.Go(func() error {
		return poller.Start(gCtx)
	})

	if deps.Pub != nil {
		gErr.Go(func() error {
			messages, err := deps.Pub.Subscribe(gCtx, cfg.RedisChannel)
			if err != nil {
				log.WithError(err).Error("failed to subscribe, relying on polling",
					logger.String("channel", cfg.RedisChannel))
				return nil
			}
			for msg := range messages {
				if err := h.UseCase.HandleEvent(gCtx, msg); err != nil {
					log.WithError(err).Warn("failed to apply endpoint change")
				}
			}
			return nil
		})
	}

	gErr.Go(func() error {
		<-gCtx.Done()

		if err := poller.Stop(); err != nil {
			log.WithError(err).Error("failed to stop poller")
		}

		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("failed to shutdown fiber app")
			return err
		}

		conn, err := db.DB()
		if err != nil {
			log.WithError(err).Error("failed to get database connection")
			return err
		}
		if err := conn.Close(); err != nil {
			log.WithError(err).Error("failed to close database")
			return err
		}

		return nil
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		log.Info("listening for shutdown signals")
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	if err := gErr.Wait(); err != nil {
		log.WithError(err).Fatal("dispatcher service encountered an error")
	}

	log.Info("dispatcher service stopped gracefully")
}
