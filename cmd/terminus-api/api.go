// Package main provides the Terminus API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/terminus-flow/terminus/pkg/statestore"
	"github.com/terminus-flow/terminus/pkg/web"
)

type API struct {
	logger *slog.Logger
	store  statestore.StateStore
}

func NewAPI(logger *slog.Logger, store statestore.StateStore) *API {
	return &API{
		logger: logger,
		store:  store,
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.store, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Terminus API")
	})

	r := app.Group("/records")
	r.Get("/status/:status", handlers.ListRecords)
	r.Get("/*", handlers.GetRecord)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}
