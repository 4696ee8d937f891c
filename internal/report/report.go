// Package report renders and publishes ledger snapshots.
package report

import (
	"context"
	"errors"
	"sync"

	"github.com/congo-pay/txengine/internal/ledger"
)

// Sink consumes a snapshot produced by a run.
type Sink interface {
	Write(ctx context.Context, runID string, accounts []ledger.Account) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, runID string, accounts []ledger.Account) error

func (f SinkFunc) Write(ctx context.Context, runID string, accounts []ledger.Account) error {
	return f(ctx, runID, accounts)
}

// Fanout writes to every sink concurrently. A failing sink does not cancel
// the others; every sink runs to completion and the errors are joined.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, runID string, accounts []ledger.Account) error {
		var wg sync.WaitGroup
		errs := make([]error, len(sinks))
		for i, s := range sinks {
			i, s := i, s
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = s.Write(ctx, runID, accounts)
			}()
		}
		wg.Wait()
		return errors.Join(errs...)
	})
}
