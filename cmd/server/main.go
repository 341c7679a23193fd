// Package main is the entry point for the wallet API server.
// It loads configuration, connects PostgreSQL and Redis, wires the
// routes and starts the HTTP server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kobo/internal/config"
	"kobo/internal/repositories"
	"kobo/internal/routes"
	"kobo/internal/services/ledger"
	"kobo/internal/services/rates"
	"kobo/internal/services/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()
	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := routes.NewGatewayRegistry()

	// Background sweep for deposits whose gateway callback never landed
	ledgerRepo := repositories.NewLedgerRepository(repositories.DB)
	engine := ledger.NewService(ledgerRepo, repositories.CacheService, ledger.Config{
		ProcessingTimeout: config.GetDurationEnv("GATEWAY_TIMEOUT", 30*time.Second),
	}, nil)
	sweeper := reconcile.NewSweeper(
		reconcile.NewService(engine, registry),
		ledgerRepo,
		config.GetDurationEnv("SWEEP_INTERVAL", 5*time.Minute),
		config.GetDurationEnv("SWEEP_MIN_AGE", 10*time.Minute),
		config.GetIntEnv("SWEEP_BATCH", 50),
	)
	go sweeper.Run(ctx)

	// Background FX rate refresh
	if providerURL := config.GetEnv("RATE_PROVIDER_URL", ""); providerURL != "" {
		refresher := rates.NewRefresher(
			repositories.NewRateRepository(repositories.DB),
			rates.NewHTTPProvider(providerURL, 0),
			rates.DefaultPairs(),
			config.GetDurationEnv("RATE_REFRESH_INTERVAL", time.Hour),
		)
		go refresher.Run(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      "kobo",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	for _, path := range []string{"/api/register", "/api/login", "/api/activate"} {
		app.Use(path, limiter.New(limiter.Config{
			Max:        10,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "too many requests, try again later",
				})
			},
		}))
	}

	routes.SetupRoutes(app, registry)

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
