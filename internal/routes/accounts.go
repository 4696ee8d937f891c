package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/report"
)

// RegisterAccountRoutes exposes read-only views of the ledger.
func RegisterAccountRoutes(r fiber.Router, l ledger.Ledger) {
	r.Get("/accounts", func(c *fiber.Ctx) error {
		accounts, err := l.Snapshot(c.UserContext())
		if err != nil {
			return err
		}
		views := make([]report.AccountView, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, report.NewAccountView(a))
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"accounts": views})
	})

	r.Get("/accounts.csv", func(c *fiber.Ctx) error {
		accounts, err := l.Snapshot(c.UserContext())
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return report.WriteCSV(c, accounts)
	})
}
