// Package testutil provides shared helpers for package tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/migrate"
	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Skip(args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

var _ TestingTB = (testing.TB)(nil)

// SetupTestRedis starts an in-process Redis and returns a client bound to it.
// Both are closed when the test ends. Use the returned server to fast-forward
// TTLs or inspect keys.
func SetupTestRedis(t TestingTB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: close redis client: %v", cerr)
		}
		srv.Close()
	})
	return client, srv
}

// SetupTestDB connects to the Postgres database named by TEST_DATABASE_URL
// and applies migrations. The test is skipped when the variable is unset.
// Rows written by the test are removed on cleanup.
func SetupTestDB(t TestingTB) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal("open database:", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatal("ping database:", err)
	}
	if err := migrate.Run(ctx, stdlib.OpenDBFromPool(pool)); err != nil {
		pool.Close()
		t.Fatal("run migrations:", err)
	}
	t.Cleanup(func() {
		for _, table := range []string{"properties", "users_metadata", "accounts"} {
			if _, err := pool.Exec(context.Background(), "DELETE FROM "+table); err != nil {
				t.Logf("warning: cleanup %s: %v", table, err)
			}
		}
		pool.Close()
	})
	return pool
}

// FixedTimeFunc returns a clock that always reports ts.
func FixedTimeFunc(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

// StringPtr returns a pointer to the given string value.
func StringPtr(s string) *string {
	return &s
}

// BoolPtr returns a pointer to the given bool value.
func BoolPtr(b bool) *bool {
	return &b
}
