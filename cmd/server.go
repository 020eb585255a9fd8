package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/contractorconnect/pkg/asyncx"
	"github.com/Abraxas-365/contractorconnect/pkg/config"
	"github.com/Abraxas-365/contractorconnect/pkg/errx"
	"github.com/Abraxas-365/contractorconnect/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Environment and logger
	if err := godotenv.Load(); err == nil {
		logx.Debug("Loaded .env")
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}

	logx.Infof("🚀 Starting %s...", cfg.Server.AppName)

	// 2. Dependency container
	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	container.StartBackgroundServices(ctx)

	// 3. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               cfg.Server.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(cfg.Server.Debug),
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           120 * time.Second,
	})

	// 4. Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.Server.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: func() string { return "req-" + uuid.NewString() },
	}))

	// service logs carry the HTTP request id through the user context
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(logx.NewContext(c.UserContext(), logx.Fields{"req_id": requestID(c)}))
		return c.Next()
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 5. Health and info
	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler(cfg))

	// 6. Routes
	api := app.Group("/api/v1")

	container.IAM.AuthHandlers.RegisterRoutes(api)
	container.IAM.UserHandlers.RegisterRoutes(api, container.IAM.AuthMiddleware)
	logx.Info("✓ Auth and user routes registered")

	container.Market.RequestHandlers.RegisterRoutes(api, container.IAM.AuthMiddleware)
	container.Market.BidHandlers.RegisterRoutes(api, container.IAM.AuthMiddleware)
	logx.Info("✓ Request and bid routes registered")

	// 7. 404
	app.Use(notFoundHandler)

	printRouteSummary()

	// 8. Serve until signalled
	startServer(app, cfg.Server.Port, stop)
}

// ============================================================================
// Handlers
// ============================================================================

type healthCheck struct {
	name string
	ping func(context.Context) error
}

// healthCheckHandler pings the database and Redis concurrently.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": container.Config.Server.AppName,
			"version": container.Config.Server.Version,
		}

		var checks []healthCheck
		if container.DB != nil {
			checks = append(checks, healthCheck{"db", container.DB.PingContext})
		} else {
			health["db"] = "memory"
		}
		if container.Redis != nil {
			checks = append(checks, healthCheck{"redis", func(ctx context.Context) error {
				return container.Redis.Ping(ctx).Err()
			}})
		} else {
			health["redis"] = "disabled"
		}

		fns := make([]func(context.Context) (struct{}, error), len(checks))
		for i, hc := range checks {
			fns[i] = func(ctx context.Context) (struct{}, error) {
				return struct{}{}, hc.ping(ctx)
			}
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for i, r := range asyncx.AllSettled(ctx, fns...) {
			name := checks[i].name
			if r.OK() {
				health[name] = "healthy"
				continue
			}
			health[name] = "unhealthy"
			health[name+"_error"] = r.Err.Error()
			health["status"] = "degraded"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     cfg.Server.AppName,
			"version":     cfg.Server.Version,
			"description": "Marketplace connecting housing societies with contractors",
			"endpoints": fiber.Map{
				"auth":     "/api/v1/auth",
				"users":    "/api/v1/users",
				"requests": "/api/v1/requests",
				"bids":     "/api/v1/bids",
				"health":   "/health",
			},
		})
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": requestID(c),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

// errorHandler renders *errx.Error values; anything else becomes a generic 500.
func errorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":      fe.Message,
				"code":       "HTTP_ERROR",
				"status":     fe.Code,
				"request_id": requestID(c),
			})
		}

		e := errx.FromError(err)

		entry := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": requestID(c),
			"code":       e.Code,
		})
		if e.HTTPStatus >= fiber.StatusInternalServerError {
			entry.WithError(err).Error("Request failed")
		} else {
			entry.Debugf("Request rejected: %v", err)
		}

		resp := fiber.Map{
			"error":      e.Message,
			"code":       e.Code,
			"type":       string(e.Type),
			"status":     e.HTTPStatus,
			"request_id": requestID(c),
		}
		if len(e.Details) > 0 {
			resp["details"] = e.Details
		}
		if debug && e.Err != nil {
			resp["underlying_error"] = e.Err.Error()
		}
		return c.Status(e.HTTPStatus).JSON(resp)
	}
}

// ============================================================================
// Server lifecycle
// ============================================================================

func printRouteSummary() {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Auth: /api/v1/auth/*")
	logx.Info("   ├─ Users: /api/v1/users/*")
	logx.Info("   ├─ Requests: /api/v1/requests/*")
	logx.Info("   ├─ Bids: /api/v1/bids/*")
	logx.Info("   └─ Health: /health")
}

func startServer(app *fiber.App, port string, stopBackground context.CancelFunc) {
	go func() {
		logx.Info(strings.Repeat("=", 61))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info(strings.Repeat("=", 61))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	stopBackground()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
