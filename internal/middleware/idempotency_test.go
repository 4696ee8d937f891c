package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/txengine/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *miniredis.Miniredis, *atomic.Int32) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	var calls atomic.Int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/records", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n, "size": len(c.Body())})
	})
	app.Post("/fail", func(c *fiber.Ctx) error {
		calls.Add(1)
		return fiber.NewError(fiber.StatusServiceUnavailable, "down")
	})
	return app, mr, &calls
}

func post(t *testing.T, app *fiber.App, path, body, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, "text/csv")
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(payload), resp.Header.Get(idempotencyReplayHeader)
}

func TestIdempotencyReplaysByHeader(t *testing.T) {
	app, _, calls := setupTestApp(t)

	status, body, replayed := post(t, app, "/records", "deposit,1,1,5", "abc123")
	if status != fiber.StatusCreated || replayed != "" {
		t.Fatalf("first request: status=%d replayed=%q", status, replayed)
	}

	status2, body2, replayed2 := post(t, app, "/records", "deposit,1,1,5", "abc123")
	if status2 != fiber.StatusCreated || body2 != body || replayed2 != "true" {
		t.Fatalf("expected cached replay, got status=%d body=%s replayed=%q", status2, body2, replayed2)
	}
	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times", calls.Load())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	app, _, calls := setupTestApp(t)

	post(t, app, "/records", "deposit,1,1,5", "reused")
	status, _, replayed := post(t, app, "/records", "deposit,1,1,6", "reused")
	if status != fiber.StatusUnprocessableEntity || replayed != "" {
		t.Fatalf("expected %d got status=%d replayed=%q", fiber.StatusUnprocessableEntity, status, replayed)
	}
	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times", calls.Load())
	}
}

func TestIdempotencyExecutesIdenticalBodiesWithoutKey(t *testing.T) {
	app, _, calls := setupTestApp(t)

	for i := 0; i < 3; i++ {
		status, _, replayed := post(t, app, "/records", "dispute,1,1,", "")
		if status != fiber.StatusCreated || replayed != "" {
			t.Fatalf("request %d: status=%d replayed=%q", i, status, replayed)
		}
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 handler calls, got %d", calls.Load())
	}
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	app, mr, _ := setupTestApp(t)
	if err := mr.Set(idempotencyCacheKey("busy"), inProgressMarker); err != nil {
		t.Fatalf("seed: %v", err)
	}

	status, _, _ := post(t, app, "/records", "x", "busy")
	if status != fiber.StatusConflict {
		t.Fatalf("expected %d got %d", fiber.StatusConflict, status)
	}
}

func TestIdempotencyReleasesOnServerError(t *testing.T) {
	app, _, calls := setupTestApp(t)

	for i := 0; i < 2; i++ {
		status, _, _ := post(t, app, "/fail", "x", "retry-me")
		if status != fiber.StatusServiceUnavailable {
			t.Fatalf("attempt %d: status %d", i, status)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("failed request should be retryable, handler ran %d times", calls.Load())
	}
}

func TestIdempotencySkipsSafeMethods(t *testing.T) {
	app, _, _ := setupTestApp(t)
	app.Get("/accounts", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/accounts", nil))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.Header.Get(idempotencyReplayHeader) != "" {
			t.Fatalf("GET must not be replayed")
		}
	}
}

func TestIdempotencyPassesBodilessRequestsWithoutKey(t *testing.T) {
	app, _, calls := setupTestApp(t)

	for i := 0; i < 2; i++ {
		if _, _, replayed := post(t, app, "/records", "", ""); replayed != "" {
			t.Fatalf("bodiless request without key must not be replayed")
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls.Load())
	}
}
