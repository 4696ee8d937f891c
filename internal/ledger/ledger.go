package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/congo-pay/txengine/internal/amount"
)

var (
	// ErrMissingAmount occurs when a deposit or withdrawal carries no amount.
	ErrMissingAmount = errors.New("missing amount")

	// ErrUnknownKind indicates a record kind outside the supported set.
	ErrUnknownKind = errors.New("unknown record kind")
)

// ClientID identifies a client account.
type ClientID uint16

// TxID identifies a deposit or withdrawal. Dispute records reference it.
type TxID uint32

// Kind enumerates the supported record kinds.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

var kindNames = map[Kind]string{
	KindDeposit:    "deposit",
	KindWithdrawal: "withdrawal",
	KindDispute:    "dispute",
	KindResolve:    "resolve",
	KindChargeback: "chargeback",
}

// ParseKind maps a case-insensitive kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Record is a single input instruction. Amount holds the raw decimal text and
// is only parsed once the target account is known to be unlocked.
type Record struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount *string
}

// WithAmount returns a copy of r carrying the given amount text.
func (r Record) WithAmount(text string) Record {
	r.Amount = &text
	return r
}

// Account is the externally visible state of a client.
type Account struct {
	Client    ClientID
	Available amount.Amount
	Held      amount.Amount
	Locked    bool
}

// Total returns available minus held funds.
func (a Account) Total() amount.Amount {
	return a.Available.Sub(a.Held)
}

// Ledger defines the contract implemented by ledger backends.
type Ledger interface {
	// Apply executes one record. A returned error means no state changed.
	Apply(ctx context.Context, rec Record) error
	// Snapshot returns every known account ordered by ascending client id.
	Snapshot(ctx context.Context) ([]Account, error)
}
