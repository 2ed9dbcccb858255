package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"companyhub-backend/database"
	"companyhub-backend/middlewares"
	"companyhub-backend/routes"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// ---- Global store (tenants collection)
	if err := database.Connect(); err != nil {
		logger.Fatal("could not connect to global store", zap.Error(err))
	}
	idxCtx, idxCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := database.EnsureGlobalIndexes(idxCtx); err != nil {
		idxCancel()
		logger.Fatal("could not ensure global indexes", zap.Error(err))
	}
	idxCancel()

	// ---- Tenant connection core
	cache := database.NewCache(logger)
	dialer := database.NewDialerFromEnv()
	provisioner := database.NewProvisioner(cache, dialer, logger)
	router := database.NewRouter(cache, database.NewTenantStore(database.Tenants()), dialer, logger)
	supervisor := database.NewSupervisor(
		cache,
		time.Duration(envInt("CONN_SWEEP_INTERVAL_MINUTES", 30))*time.Minute,
		time.Duration(envInt("CONN_IDLE_TTL_MINUTES", 60))*time.Minute,
		time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", 15))*time.Second,
		logger,
	)

	// ---- Limits (configurable via env)
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.NewErrorHandler(logger),
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))

	// ---- Global rate limiter
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Routes
	routes.Register(app, provisioner, router, cache, logger)

	// ---- Supervisor + signals (SIGINT/SIGTERM drain the cache)
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go supervisor.Run(sigCtx)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("API server started", zap.String("port", port))

	<-sigCtx.Done()
	logger.Info("shutdown signal received")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("server shutdown incomplete", zap.Error(err))
	}
	if err := supervisor.Shutdown(); err != nil {
		logger.Warn("connection drain incomplete", zap.Error(err))
	}
	dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := database.Disconnect(dctx); err != nil {
		logger.Warn("global store disconnect failed", zap.Error(err))
	}
	dcancel()

	logger.Info("shutdown complete")
}
