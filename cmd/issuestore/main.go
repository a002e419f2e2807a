package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/gamewiki/issuestore"
	"github.com/gamewiki/issuestore/client"
	"github.com/gamewiki/issuestore/internal/config"
	"github.com/gamewiki/issuestore/internal/infra/cache"
	"github.com/gamewiki/issuestore/internal/infra/database"
	"github.com/gamewiki/issuestore/internal/infra/gateway"
	"github.com/gamewiki/issuestore/internal/infra/lock"
	"github.com/gamewiki/issuestore/internal/infra/repository"
	"github.com/gamewiki/issuestore/internal/interface/rest"
	authmw "github.com/gamewiki/issuestore/internal/present/rest/middleware"
	"github.com/gamewiki/issuestore/internal/service"
	"github.com/gamewiki/issuestore/internal/telemetry"
	"github.com/gamewiki/issuestore/internal/usecase"
)

const serviceName = "issuestore"

func main() {
	configPath := flag.String("config", envOr("ISSUESTORE_CONFIG", "/etc/issuestore/config.yaml"), "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(telemetry.NewLogger(os.Stdout, conf.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, conf.Server.EnableTrace, conf.Server.TraceEndpoint, serviceName)
	if err != nil {
		slog.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	githubClient, err := client.New(client.Config{
		BaseURL:           conf.GitHub.BaseURL,
		Token:             conf.GitHub.Token,
		UserAgent:         conf.GitHub.UserAgent,
		RequestsPerSecond: conf.GitHub.RequestsPerSecond,
		Logger:            slog.Default(),
	})
	if err != nil {
		slog.Error("failed to create github client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	commentTTL := config.Duration(conf.Store.CommentCacheTTL, 5*time.Minute)
	var commentCache cache.Cache = cache.NewMemory(commentTTL)
	switch {
	case conf.Server.MemcachedAddr != "":
		mc, err := database.NewMemcached(conf.Server.MemcachedAddr)
		if err != nil {
			slog.Error("failed to connect memcached", slog.String("error", err.Error()))
			os.Exit(1)
		}
		commentCache = cache.NewMemcached(mc, commentTTL)
	case conf.Store.LockBackend == config.LockRedis:
		// several instances share the lock, so a per-process cache would go stale
		commentCache = cache.Noop{}
	}

	var rdb *redis.Client
	if conf.Server.RedisAddr != "" {
		rdb, err = database.NewRedis(ctx, conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		if err != nil {
			slog.Error("failed to connect redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var locker usecase.Locker
	switch conf.Store.LockBackend {
	case config.LockLocal:
		locker = lock.NewLocal()
	case config.LockRedis:
		locker = lock.NewRedis(rdb, config.Duration(conf.Store.LockLease, 10*time.Second))
	}

	var publisher usecase.EventPublisher
	if conf.Events.Enabled {
		publisher = service.NewSignalService(rdb, conf.Events.Channel)
	}

	ticketGateway := gateway.NewGitHubGateway(githubClient, conf.GitHub.Owner, conf.GitHub.Repo, commentCache)
	collectionRepo := repository.NewCollectionRepository(ticketGateway, conf.Store.Collections, locker)
	registryRepo := repository.NewRegistryRepository(ticketGateway, locker)

	collectionUsecase := usecase.NewCollectionUsecase(collectionRepo, publisher, conf.CollectionTypes())
	pictureUsecase := usecase.NewProfilePictureUsecase(registryRepo)
	rateLimitUsecase := usecase.NewRateLimitUsecase(registryRepo, locker)

	authService := service.NewAuthService(githubClient, config.Duration(conf.Server.AuthCacheTTL, 10*time.Minute))
	auth := authmw.NewAuthMiddleware(authService)

	handler := rest.NewHandler(conf.RateLimit, collectionUsecase, pictureUsecase, rateLimitUsecase)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName, otelecho.WithSkipper(func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/healthz"
		})))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("module", "http"),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(auth.IdentifyIdentity)

	handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	slog.Info("starting issuestore",
		slog.String("listen", conf.Server.Listen),
		slog.String("repository", conf.GitHub.Owner+"/"+conf.GitHub.Repo),
		slog.String("lockBackend", conf.Store.LockBackend),
		slog.String("dataVersion", issuestore.LabelDataVersion),
	)

	go func() {
		if err := e.Start(conf.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
