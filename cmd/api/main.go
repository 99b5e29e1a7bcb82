package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Andreo9078/orgdirectory/internal/adapters/http"
	"github.com/Andreo9078/orgdirectory/internal/adapters/postgres"
	"github.com/Andreo9078/orgdirectory/internal/adapters/valkey"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
	"github.com/Andreo9078/orgdirectory/internal/core/usecases"
	"github.com/Andreo9078/orgdirectory/internal/pkg/config"
	"github.com/Andreo9078/orgdirectory/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache. The directory works without it, just slower.
	var cache ports.CacheService
	vk, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, response caching disabled", "error", err)
	} else {
		defer vk.Close()
		cache = vk
	}

	// Repos
	orgRepo := postgres.NewOrganizationRepo(db)
	buildingRepo := postgres.NewBuildingRepo(db)
	activityRepo := postgres.NewActivityRepo(db)

	// Use cases
	orgSvc := usecases.NewOrganizationService(orgRepo)
	buildingSvc := usecases.NewBuildingService(buildingRepo)
	activitySvc := usecases.NewActivityService(activityRepo)

	deps := &http.Dependencies{
		Organizations: orgSvc,
		Buildings:     buildingSvc,
		Activities:    activitySvc,
		DB:            db,
		Cache:         cache,
		APIKey:        cfg.Auth.APIKey,
		ResponseTTL:   cfg.Valkey.ResponseTTL,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "Organization Directory API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
