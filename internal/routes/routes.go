package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/middleware"
	"github.com/congo-pay/txengine/internal/processor"
	"github.com/congo-pay/txengine/internal/report"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// are optional; Processor and Logger are required.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Processor *processor.Processor
	Sinks     []report.Sink
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterRecordRoutes(api, d.Processor, middleware.UploadRateLimit(d.Cache, d.Cfg.UploadRatePerMin))
	RegisterAccountRoutes(api, d.Processor.Ledger())
	RegisterSnapshotRoutes(api, d.Processor, d.Sinks)

	return nil
}
