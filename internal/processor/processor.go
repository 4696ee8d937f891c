// Package processor drives record sources into a ledger and publishes the
// resulting snapshot.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/notification"
	"github.com/congo-pay/txengine/internal/report"
)

// Source yields records until it returns io.EOF.
type Source interface {
	Next() (ledger.Record, error)
}

// lineReporter is implemented by sources that know their position in the input.
type lineReporter interface {
	Line() int
}

// RecordError reports the record that aborted a run.
type RecordError struct {
	Index  int
	Line   int
	Record ledger.Record
	Err    error
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: apply %s tx %d for client %d: %v", e.Line, e.Record.Kind, e.Record.Tx, e.Record.Client, e.Err)
	}
	return fmt.Sprintf("record %d: apply %s tx %d for client %d: %v", e.Index, e.Record.Kind, e.Record.Tx, e.Record.Client, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Result summarises a run.
type Result struct {
	RunID   string
	Applied int
}

// Processor applies records to a ledger.
type Processor struct {
	ledger   ledger.Ledger
	logger   *slog.Logger
	notifier notification.Notifier
	newID    func() string
}

// New constructs a Processor. A nil notifier disables lock notifications.
func New(l ledger.Ledger, logger *slog.Logger, notifier notification.Notifier) *Processor {
	return &Processor{ledger: l, logger: logger, notifier: notifier, newID: uuid.NewString}
}

// Ledger returns the ledger records are applied to.
func (p *Processor) Ledger() ledger.Ledger { return p.ledger }

// Run applies every record from src in order. The first error stops the run;
// records applied before it remain applied.
func (p *Processor) Run(ctx context.Context, src Source) (Result, error) {
	res := Result{RunID: p.newID()}
	var applied atomic.Int64
	err := p.drain(ctx, res.RunID, src, &applied)
	res.Applied = int(applied.Load())
	return res, err
}

// RunConcurrent drains every source on its own goroutine into the shared
// ledger. Records from one source keep their order; there is no ordering
// across sources. The first error cancels the remaining sources.
func (p *Processor) RunConcurrent(ctx context.Context, srcs ...Source) (Result, error) {
	res := Result{RunID: p.newID()}
	var applied atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		src := src
		g.Go(func() error {
			return p.drain(gctx, res.RunID, src, &applied)
		})
	}
	err := g.Wait()
	res.Applied = int(applied.Load())
	return res, err
}

func (p *Processor) drain(ctx context.Context, runID string, src Source, applied *atomic.Int64) error {
	logger := p.logger.With(slog.String("run_id", runID))

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			logger.Error("read record", slog.Any("error", err))
			return fmt.Errorf("read record: %w", err)
		}

		if err := p.ledger.Apply(ctx, rec); err != nil {
			rerr := &RecordError{Index: i, Record: rec, Err: err}
			if lr, ok := src.(lineReporter); ok {
				rerr.Line = lr.Line()
			}
			logger.Error("apply record",
				slog.Int("line", rerr.Line),
				slog.String("kind", rec.Kind.String()),
				slog.Uint64("client", uint64(rec.Client)),
				slog.Uint64("tx", uint64(rec.Tx)),
				slog.Any("error", err),
			)
			return rerr
		}
		applied.Add(1)
	}
}

// Finish snapshots the ledger, writes it to sink and sends a notification
// for every locked account. The snapshot is returned for callers that render
// it themselves.
func (p *Processor) Finish(ctx context.Context, runID string, sink report.Sink) ([]ledger.Account, error) {
	accounts, err := p.ledger.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	if sink != nil {
		if err := sink.Write(ctx, runID, accounts); err != nil {
			return nil, fmt.Errorf("write snapshot: %w", err)
		}
	}

	locked := 0
	for _, a := range accounts {
		if !a.Locked {
			continue
		}
		locked++
		if p.notifier == nil {
			continue
		}
		msg := notification.Message{Kind: notification.KindAccountLocked, RunID: runID, Account: a}
		if err := p.notifier.Send(ctx, msg); err != nil {
			p.logger.Warn("notify locked account", slog.String("run_id", runID), slog.Uint64("client", uint64(a.Client)), slog.Any("error", err))
		}
	}

	p.logger.Info("run finished", slog.String("run_id", runID), slog.Int("accounts", len(accounts)), slog.Int("locked", locked))
	return accounts, nil
}
