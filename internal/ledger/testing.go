package ledger

import "github.com/congo-pay/txengine/internal/amount"

// SeedAccount is a test helper that sets the balances of a client when using the in-memory ledger.
func SeedAccount(l Ledger, client ClientID, available, held amount.Amount, locked bool) {
	if mem, ok := l.(*inMemoryLedger); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		mem.clients[client] = &clientState{available: available, held: held, frozen: locked}
	}
}
