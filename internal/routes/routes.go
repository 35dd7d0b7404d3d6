package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Health     *handlers.HealthHandler
	Companies  *handlers.CompanyHandler
	Users      *handlers.UserHandler
	Punchcards *handlers.PunchcardHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers) {
	// Per-IP sliding window across the whole API.
	app.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	app.Use(metrics.Middleware())

	app.Get("/health", h.Health.Check)
	app.Get("/metrics", metrics.Handler())

	admin := middleware.AdminRequired(cfg)
	jsonBody := middleware.RequireJSON()

	companies := app.Group("/companies")
	companies.Get("/", h.Companies.List)
	// Registered before /:id so "search" is never taken as an id.
	companies.Post("/search", h.Companies.Search)
	companies.Get("/:id", h.Companies.Get)
	companies.Post("/", admin, jsonBody, h.Companies.Create)
	companies.Post("/:id", admin, jsonBody, h.Companies.Update)
	companies.Delete("/:id", admin, h.Companies.Delete)

	users := app.Group("/users")
	users.Get("/", h.Users.List)
	users.Get("/:id", h.Users.Get)
	users.Post("/", h.Users.Create)

	app.Post("/punchcards/:company_id", h.Punchcards.Create)

	app.Post("/admin/reindex", admin, h.Companies.Reindex)
}
