package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/infra"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/logging"
	"github.com/congo-pay/txengine/internal/processor"
	"github.com/congo-pay/txengine/internal/report"
	"github.com/congo-pay/txengine/internal/source"
)

var errUsage = errors.New("usage: txengine <transactions.csv>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run processes the file named by args and writes the report to stdout. Nothing
// is written to stdout unless every record applies and every sink succeeds.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (retErr error) {
	if len(args) != 1 {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(stderr, cfg.LogLevel)

	backends, err := infra.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect backends: %w", err)
	}
	defer func() {
		if err := backends.Close(); err != nil && retErr == nil {
			retErr = fmt.Errorf("close backends: %w", err)
		}
	}()

	src, closer, err := source.Open(args[0])
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	proc := processor.New(ledger.NewInMemory(), logger, backends.Notifier(logger))
	res, err := proc.Run(ctx, src)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	sink := report.Fanout(backends.Sinks(cfg, report.NewCSVSink(&out))...)
	if _, err := proc.Finish(ctx, res.RunID, sink); err != nil {
		return err
	}

	if _, err := out.WriteTo(stdout); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
