package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/congo-pay/txengine/internal/middleware"
	"github.com/congo-pay/txengine/internal/processor"
	"github.com/congo-pay/txengine/internal/report"
)

// RegisterSnapshotRoutes publishes the current ledger state to the configured sinks.
func RegisterSnapshotRoutes(r fiber.Router, proc *processor.Processor, sinks []report.Sink) {
	r.Post("/snapshots", func(c *fiber.Ctx) error {
		runID := uuid.NewString()
		c.Locals(middleware.RunIDLocal, runID)

		accounts, err := proc.Finish(c.UserContext(), runID, report.Fanout(sinks...))
		if err != nil {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"run_id":   runID,
			"accounts": len(accounts),
			"sinks":    len(sinks),
		})
	})
}
