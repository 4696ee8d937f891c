package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/congo-pay/txengine/internal/amount"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func isolateEnv(t *testing.T) {
	t.Helper()
	chdir(t, t.TempDir())
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}
}

func TestRun(t *testing.T) {
	isolateEnv(t)
	path := writeInput(t, "type,client,tx,amount\n"+
		"deposit,1,1,10.5001\n"+
		"withdrawal,1,2,10.5001\n"+
		"dispute,1,1,\n"+
		"chargeback,1,1,\n"+
		"deposit,1,3,100.5001\n"+
		"deposit,2,4,0.25\n")

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{path}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nlogs: %s", err, stderr.String())
	}

	want := "client, available, held, total, locked\n" +
		"1, -10.5001, 0, -10.5001, true\n" +
		"2, 0.25, 0, 0.25, false\n"
	if stdout.String() != want {
		t.Fatalf("unexpected stdout:\n%s\nwant:\n%s", stdout.String(), want)
	}
}

func TestRunFailsWithoutOutput(t *testing.T) {
	isolateEnv(t)
	path := writeInput(t, "type,client,tx,amount\ndeposit,1,1,5\ndeposit,1,2,.5\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{path}, &stdout, &stderr)
	if !errors.Is(err, amount.ErrMissingWholePart) {
		t.Fatalf("expected ErrMissingWholePart, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected empty stdout, got %q", stdout.String())
	}
}

func TestRunUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), nil, &stdout, &stderr); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), []string{"a", "b"}, &stdout, &stderr); !errors.Is(err, errUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestRunMissingFile(t *testing.T) {
	isolateEnv(t)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.csv")}, &stdout, &stderr)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
