package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/txengine/internal/ledger"
)

const (
	snapshotKeyPrefix = "txengine:snapshot:"
	latestSnapshotKey = snapshotKeyPrefix + "latest"
)

// AccountView is the JSON representation of an account.
type AccountView struct {
	Client    uint16          `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}

// NewAccountView converts a ledger account to its JSON view.
func NewAccountView(a ledger.Account) AccountView {
	return AccountView{
		Client:    uint16(a.Client),
		Available: a.Available.Decimal(),
		Held:      a.Held.Decimal(),
		Total:     a.Total().Decimal(),
		Locked:    a.Locked,
	}
}

// RedisSink stores snapshots as hashes keyed by run id and tracks the latest run.
type RedisSink struct {
	cache *redis.Client
	ttl   time.Duration
}

// NewRedisSink constructs a Redis-backed sink. A zero ttl keeps snapshots forever.
func NewRedisSink(cache *redis.Client, ttl time.Duration) *RedisSink {
	return &RedisSink{cache: cache, ttl: ttl}
}

// SnapshotKey returns the hash key for runID.
func SnapshotKey(runID string) string {
	return snapshotKeyPrefix + runID
}

func (s *RedisSink) Write(ctx context.Context, runID string, accounts []ledger.Account) error {
	fields := make(map[string]any, len(accounts))
	for _, a := range accounts {
		payload, err := json.Marshal(NewAccountView(a))
		if err != nil {
			return fmt.Errorf("encode client %d: %w", a.Client, err)
		}
		fields[strconv.FormatUint(uint64(a.Client), 10)] = payload
	}

	key := SnapshotKey(runID)
	_, err := s.cache.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(fields) > 0 {
			p.HSet(ctx, key, fields)
			if s.ttl > 0 {
				p.Expire(ctx, key, s.ttl)
			}
		}
		p.Set(ctx, latestSnapshotKey, runID, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store snapshot %s: %w", runID, err)
	}
	return nil
}

// Latest returns the run id of the most recent snapshot, or "" if none.
func (s *RedisSink) Latest(ctx context.Context) (string, error) {
	runID, err := s.cache.Get(ctx, latestSnapshotKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	return runID, err
}
