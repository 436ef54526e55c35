package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"stockswap/internal/config"
	"stockswap/internal/database"
	"stockswap/internal/handlers"
	"stockswap/internal/middleware"
	"stockswap/internal/repositories"
	"stockswap/internal/services"
	"stockswap/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A nil *rabbitmq.Client must not reach the services as a non-nil interface.
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQ.Enabled {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		events = mqClient

		log.Println("Starting RabbitMQ consumer for export request events...")
		if err := mqClient.ConsumeExportEvents(ctx, rabbitmq.LogExportEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Println("RabbitMQ disabled. Export request events will not be published.")
	}

	app := newApp(cfg, store, events, func() string {
		switch {
		case mqClient == nil:
			return "disabled"
		case mqClient.Healthy():
			return "connected"
		}
		return "disconnected"
	})

	log.Printf("Starting server on port %s", cfg.App.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.App.Port); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openStore returns the inventory store for the configured driver and its closer.
func openStore(cfg config.DatabaseConfig) (repositories.Store, func() error, error) {
	if cfg.Driver == config.DriverMemory {
		log.Println("Using in-memory store; data is lost on restart")
		return repositories.NewMemoryStore(), func() error { return nil }, nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewGORMStore(db), func() error { return database.Close(db) }, nil
}

// newApp wires services, handlers and middleware onto a Fiber app. mqStatus reports the
// RabbitMQ state for /health.
func newApp(cfg *config.Config, store repositories.Store, events services.EventPublisher, mqStatus func() string) *fiber.App {
	authService := services.NewAuthService(store.Shopkeepers(), cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	productService := services.NewProductService(store.Products(), store.ExportRequests())
	shopkeeperService := services.NewShopkeeperService(store.Shopkeepers())
	exportService := services.NewExportRequestService(store, events)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    1 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.App.RateLimitMax,
		Expiration: cfg.App.RateLimitTTL,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests",
			})
		},
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": cfg.Database.Driver,
			"rabbitmq": mqStatus(),
		})
	})

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewShopkeeperHandler(shopkeeperService).RegisterRoutes(protected)
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewExportRequestHandler(exportService).RegisterRoutes(protected)

	return app
}
