package infra

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/logging"
	"github.com/congo-pay/txengine/internal/notification"
)

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestNewRedisClientRejectsEmptyURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := NewRedisClient(context.Background(), "::not a url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewPostgresPoolRejectsEmptyURL(t *testing.T) {
	if _, err := NewPostgresPool(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if err := Migrate(""); err == nil {
		t.Fatalf("expected error for empty migrate url")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected up and down migrations, got %d files", len(entries))
	}
}

func TestConnectWithRedisOnly(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cfg := config.Config{RedisURL: "redis://" + mr.Addr()}
	b, err := Connect(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer b.Close()

	if b.DB != nil || b.Kafka != nil || b.Cache == nil {
		t.Fatalf("unexpected backends %+v", b)
	}
	if got := len(b.Sinks(cfg)); got != 1 {
		t.Fatalf("expected 1 sink, got %d", got)
	}
	if _, ok := b.Notifier(logging.Discard()).(*notification.LoggerNotifier); !ok {
		t.Fatalf("expected logger notifier without kafka")
	}
}

func TestConnectWithKafka(t *testing.T) {
	cfg := config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"}
	b, err := Connect(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer b.Close()

	if _, ok := b.Notifier(logging.Discard()).(notification.Multi); !ok {
		t.Fatalf("expected chained notifier with kafka")
	}
}
