package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/telemed/telemed/internal/config"
	"github.com/telemed/telemed/internal/domain/consultation"
	"github.com/telemed/telemed/internal/domain/identity"
	"github.com/telemed/telemed/internal/domain/patient"
	"github.com/telemed/telemed/internal/domain/severity"
	"github.com/telemed/telemed/internal/platform/auth"
	"github.com/telemed/telemed/internal/platform/db"
	"github.com/telemed/telemed/internal/platform/events"
	"github.com/telemed/telemed/internal/platform/httpx"
	"github.com/telemed/telemed/internal/platform/middleware"
)

const version = "0.1.0"

// serverDeps is everything newServer wires into routes.
type serverDeps struct {
	cfg           *config.Config
	logger        zerolog.Logger
	sessions      *auth.SessionManager
	revocations   auth.RevocationStore
	identity      *identity.Service
	patients      *patient.Service
	consultations *consultation.Service
	dbHealth      echo.HandlerFunc
	// ipExtractor defaults to the peer address when nil.
	ipExtractor   echo.IPExtractor
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Logger
	logger := newLogger(cfg.Env, os.Stdout)

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, poolConfig(cfg))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Session revocation
	var revocations auth.RevocationStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		revocations = auth.NewRedisRevocationStore(client)
		logger.Info().Msg("session revocations stored in redis")
	} else {
		mem := auth.NewMemoryRevocationStore(time.Minute)
		defer mem.Close()
		revocations = mem
		logger.Warn().Msg("REDIS_URL not set; session revocations are kept in memory")
	}

	// Events
	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to message broker")
		}
		defer conn.Close()
		amqpPub, err := events.NewAMQPPublisher(conn, cfg.EventsQueue)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open event channel")
		}
		defer amqpPub.Close()
		publisher = amqpPub
		logger.Info().Str("queue", cfg.EventsQueue).Msg("publishing consultation events")
	} else {
		publisher = events.NewLogPublisher(logger)
	}

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:     []byte(cfg.SessionSecret),
		CookieName: cfg.SessionCookieName,
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
	})
	if err != nil {
		return err
	}

	ipExtractor, err := middleware.IPExtractor(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	e := newServer(serverDeps{
		cfg:           cfg,
		logger:        logger,
		sessions:      sessions,
		revocations:   revocations,
		identity:      identity.NewService(identity.NewUserRepo(pool), cfg.BcryptCost),
		patients:      patient.NewService(patient.NewProfileRepo(pool), pool),
		consultations: consultation.NewService(consultation.NewRepo(pool), pool, publisher, logger),
		dbHealth:      db.HealthHandler(pool),
		ipExtractor:   ipExtractor,
	})

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(d serverDeps) *echo.Echo {
	cfg, logger := d.cfg, d.logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = httpx.JSONSerializer{}
	e.Validator = httpx.NewValidator()
	e.HTTPErrorHandler = httpx.ErrorHandler(logger)
	e.IPExtractor = d.ipExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if d.dbHealth != nil {
		e.GET("/health/db", d.dbHealth)
	}

	// API group: rate limiting, sessions, PHI audit
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api := e.Group("/api",
		middleware.RateLimit(rateLimitCfg),
		auth.SessionMiddleware(d.sessions, d.revocations, auth.AuthSkipper, logger),
		middleware.Audit(logger),
	)

	identity.NewHandler(d.identity, d.sessions, d.revocations, logger).RegisterRoutes(api)
	severity.NewHandler().RegisterRoutes(api)
	patient.NewHandler(d.patients, logger).RegisterRoutes(api)
	consultation.NewHandler(d.consultations, logger).RegisterRoutes(api)

	return e
}
