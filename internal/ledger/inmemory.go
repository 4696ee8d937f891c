package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/congo-pay/txengine/internal/amount"
)

type clientState struct {
	available amount.Amount
	held      amount.Amount
	frozen    bool
}

type txState struct {
	client   ClientID
	amount   amount.Amount
	disputed bool
}

type inMemoryLedger struct {
	mu      sync.RWMutex
	clients map[ClientID]*clientState
	history map[TxID]*txState
}

// NewInMemory creates a concurrency-safe in-memory ledger. Each Apply holds
// the write lock for its full duration so records from concurrent sources
// never interleave.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		clients: make(map[ClientID]*clientState),
		history: make(map[TxID]*txState),
	}
}

func (l *inMemoryLedger) Apply(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.clients[rec.Client]
	if ok && acct.frozen {
		return nil
	}

	// Amounts are validated before the account is created so a rejected
	// record leaves no trace.
	var amt amount.Amount
	switch rec.Kind {
	case KindDeposit, KindWithdrawal:
		var err error
		if amt, err = recordAmount(rec); err != nil {
			return err
		}
	case KindDispute, KindResolve, KindChargeback:
	default:
		return ErrUnknownKind
	}

	if !ok {
		acct = &clientState{}
		l.clients[rec.Client] = acct
	}

	switch rec.Kind {
	case KindDeposit:
		l.history[rec.Tx] = &txState{client: rec.Client, amount: amt}
		acct.available = acct.available.Add(amt)
	case KindWithdrawal:
		l.history[rec.Tx] = &txState{client: rec.Client, amount: amt}
		if acct.available >= amt {
			acct.available = acct.available.Sub(amt)
		}
	case KindDispute:
		tx, ok := l.history[rec.Tx]
		if !ok || tx.disputed {
			return nil
		}
		acct.available = acct.available.Sub(tx.amount)
		acct.held = acct.held.Add(tx.amount)
		tx.disputed = true
	case KindResolve:
		tx, ok := l.history[rec.Tx]
		if !ok || !tx.disputed {
			return nil
		}
		acct.available = acct.available.Add(tx.amount)
		acct.held = acct.held.Sub(tx.amount)
		tx.disputed = false
	case KindChargeback:
		tx, ok := l.history[rec.Tx]
		if !ok || !tx.disputed {
			return nil
		}
		acct.held = acct.held.Sub(tx.amount)
		acct.frozen = true
	default:
		return ErrUnknownKind
	}
	return nil
}

func (l *inMemoryLedger) Snapshot(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Account, 0, len(l.clients))
	for id, c := range l.clients {
		out = append(out, Account{
			Client:    id,
			Available: c.available,
			Held:      c.held,
			Locked:    c.frozen,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out, nil
}

func recordAmount(rec Record) (amount.Amount, error) {
	if rec.Amount == nil {
		return 0, ErrMissingAmount
	}
	return amount.Parse(*rec.Amount)
}
