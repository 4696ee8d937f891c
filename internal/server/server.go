package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/infra"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/processor"
	"github.com/congo-pay/txengine/internal/routes"
)

const uploadBodyLimit = 32 << 20

// Server wraps the Fiber application and the ledger shared by every upload.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	proc   *processor.Processor
	logger *slog.Logger
}

// New builds the HTTP ingest service on top of a fresh in-memory ledger.
func New(cfg config.Config, backends *infra.Backends, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    uploadBodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	proc := processor.New(ledger.NewInMemory(), logger, backends.Notifier(logger))

	err := routes.Setup(app, routes.Deps{
		Cfg:       cfg,
		DB:        backends.DB,
		Cache:     backends.Cache,
		Logger:    logger,
		Processor: proc,
		Sinks:     backends.Sinks(cfg),
	})
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, proc: proc, logger: logger}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops accepting uploads and logs the final ledger state.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	accounts, err := s.proc.Ledger().Snapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("ledger state at shutdown", "accounts", len(accounts))
	return nil
}
