package routes

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/txengine/internal/amount"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/middleware"
	"github.com/congo-pay/txengine/internal/processor"
	"github.com/congo-pay/txengine/internal/source"
)

// RegisterRecordRoutes exposes CSV ingestion into the shared ledger.
func RegisterRecordRoutes(r fiber.Router, proc *processor.Processor, limiter fiber.Handler) {
	r.Post("/records", limiter, func(c *fiber.Ctx) error {
		src, err := source.NewCSVReader(bytes.NewReader(c.Body()))
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		res, err := proc.Run(c.UserContext(), src)
		c.Locals(middleware.RunIDLocal, res.RunID)
		if err != nil {
			if !isInputError(err) {
				return err
			}
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"run_id":  res.RunID,
				"applied": res.Applied,
				"error":   err.Error(),
			})
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"run_id":  res.RunID,
			"applied": res.Applied,
		})
	})
}

func isInputError(err error) bool {
	var (
		perr *amount.ParseError
		serr *source.SourceError
	)
	return errors.As(err, &perr) || errors.As(err, &serr) ||
		errors.Is(err, ledger.ErrMissingAmount) || errors.Is(err, ledger.ErrUnknownKind)
}
