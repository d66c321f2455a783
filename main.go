package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"catalog/internal/config"
	"catalog/internal/database"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"
)

// NewApp assembles the Fiber application: API routes under /api, CORS for
// the configured origins, and the static SPA fallback for everything else.
func NewApp(cfg *config.Config, db *gorm.DB, events services.EventPublisher) *fiber.App {
	app := fiber.New()

	app.Use(middleware.RequestID())
	app.Use(logger.New())

	api := app.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, events)
	productHandler := handlers.NewProductHandler(productService)
	productHandler.RegisterRoutes(api)

	registerStatic(app, cfg.StaticDir)

	return app
}

// registerStatic serves the prebuilt frontend bundle. Unmatched paths fall
// back to index.html for SPA client-side routing; without a bundle the
// fallback answers with a placeholder message instead.
func registerStatic(app *fiber.App, staticDir string) {
	index := filepath.Join(staticDir, "index.html")
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		app.Static("/", staticDir)
	}
	app.Get("/*", func(c *fiber.Ctx) error {
		if _, err := os.Stat(index); err == nil {
			return c.SendFile(index)
		}
		return c.JSON(fiber.Map{
			"message": "Frontend build not found. Build your frontend or run Vite dev server.",
		})
	})
}

func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	// The event publisher is optional: without a broker URL the catalog runs
	// standalone and handlers behave identically.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("RabbitMQ unavailable, catalog events disabled: %v", err)
		} else {
			defer mqClient.Close()
			events = mqClient
		}
	}

	app := NewApp(cfg, db, events)
	printRoutes(app)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

func printRoutes(app *fiber.App) {
	log.Println("=== Registered routes ===")
	for _, route := range app.GetRoutes(true) {
		log.Printf("%-8s %s", route.Method, route.Path)
	}
}
