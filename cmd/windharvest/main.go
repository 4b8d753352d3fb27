package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/windlab/windharvest/internal/api/http"
	"github.com/windlab/windharvest/internal/config"
	"github.com/windlab/windharvest/internal/harvest"
	"github.com/windlab/windharvest/internal/scheduler"
	"github.com/windlab/windharvest/internal/store"
	"github.com/windlab/windharvest/internal/wind"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Artifact store backend.
	artifacts, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to open artifact store: %v", err)
	}
	defer artifacts.Close()

	// Shared HTTP client for outbound snapshot fetches.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	fetcher := harvest.NewGFSFetcher(httpClient, cfg.GFSBaseURL, cfg.IntervalHours,
		cfg.Variables, cfg.Level, cfg.Bounds)

	converter := newConverter(cfg)

	// Harvest pipeline: fetch, convert, store, backfill.
	harvester, err := harvest.NewHarvester(artifacts, fetcher, converter,
		cfg.WorkDir, cfg.IntervalHours, cfg.GapStopDays)
	if err != nil {
		log.Fatalf("failed to build harvester: %v", err)
	}

	// Scheduler fires one chain at start, then periodically.
	sched := scheduler.New(harvester, cfg.HarvestSchedule)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Query service over the artifact store.
	service := wind.NewService(artifacts, cfg.IntervalHours)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "windharvest",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "windharvest",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newStore(cfg *config.AppConfig) (wind.ArtifactStore, error) {
	switch cfg.StoreBackend {
	case "badger":
		return store.NewBadgerStore(cfg.DataDir)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return store.NewFSStore(cfg.DataDir)
	}
}

func newConverter(cfg *config.AppConfig) harvest.Converter {
	switch cfg.Converter {
	case "netcdf":
		return harvest.NewNetCDFConverter("", "")
	default:
		return harvest.NewGrib2JSONConverter(cfg.Grib2JSONBin)
	}
}
