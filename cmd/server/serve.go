package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func runServe(ctx context.Context) error {
	d, err := bootstrap(ctx)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}
	defer d.close()
	cfg := d.cfg

	if cfg.AdminToken == "" {
		slog.Error(errAdminTokenRequired.Error())
		return errAdminTokenRequired
	}

	// ERROR+ records are also kept in system_logs.
	dbLogHandler := logging.NewDBHandler(d.db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout, cfg.LogLevel),
		dbLogHandler,
	)))

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	logging.StartCleanup(cleanupCtx, d.db, cfg.LogRetention)

	// Services
	userService := services.NewUserService(d.db)
	companyService := services.NewCompanyService(d.db, d.index)
	punchcardService := services.NewPunchcardService(d.db, userService)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, routes.Handlers{
		Health:     handlers.NewHealthHandler(d.db, d.index),
		Companies:  handlers.NewCompanyHandler(companyService),
		Users:      handlers.NewUserHandler(userService),
		Punchcards: handlers.NewPunchcardHandler(punchcardService),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "search_backend", cfg.SearchBackend)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-quit:
		slog.Info("shutting down server...")
	case err := <-listenErr:
		if err != nil {
			slog.Error("server failed to start", "error", err)
		}
		stopCleanup()
		dbLogHandler.Stop()
		return err
	}

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	stopCleanup()
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	slog.Info("server stopped")
	return nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
