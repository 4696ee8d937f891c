package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/txengine/internal/ledger"
)

// PostgresSink stores each snapshot as rows of account_snapshots.
type PostgresSink struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgresSink constructs a Postgres-backed sink. The schema is created by infra.Migrate.
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db, now: time.Now}
}

// Write inserts every account in a single transaction.
func (s *PostgresSink) Write(ctx context.Context, runID string, accounts []ledger.Account) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	const insert = `INSERT INTO account_snapshots
        (run_id, client_id, available, held, total, locked, created_at)
        VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7)`

	createdAt := s.now().UTC()
	batch := &pgx.Batch{}
	for _, a := range accounts {
		batch.Queue(insert, runID, int32(a.Client),
			a.Available.String(), a.Held.String(), a.Total().String(), a.Locked, createdAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert snapshot rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load reads back the accounts stored for runID ordered by client id.
func (s *PostgresSink) Load(ctx context.Context, runID string) ([]ledger.Account, error) {
	const query = `SELECT client_id, available::text, held::text, locked
        FROM account_snapshots WHERE run_id = $1 ORDER BY client_id`

	rows, err := s.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		var (
			client          int32
			available, held string
			locked          bool
		)
		if err := rows.Scan(&client, &available, &held, &locked); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		acct := ledger.Account{Client: ledger.ClientID(client), Locked: locked}
		if err := acct.Available.UnmarshalText([]byte(available)); err != nil {
			return nil, err
		}
		if err := acct.Held.UnmarshalText([]byte(held)); err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}
