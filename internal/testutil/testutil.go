// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

// TestRedisURL returns TEST_REDIS_URL or skips the test when it is unset.
func TestRedisURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis integration test")
	}
	return url
}

// TestRedis connects a go-redis client to the test server. Keys matching
// any of cleanupPatterns are removed when the test ends.
func TestRedis(t *testing.T, cleanupPatterns ...string) *redis.Client {
	t.Helper()

	opts, err := redis.ParseURL(TestRedisURL(t))
	if err != nil {
		t.Fatalf("invalid TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Fatalf("failed to connect to test redis: %v", err)
	}

	t.Cleanup(func() {
		cleanupKeys(context.Background(), client, cleanupPatterns)
		client.Close()
	})
	return client
}

// TestStorage opens the Fiber Redis storage against the test server.
func TestStorage(t *testing.T, cleanupPatterns ...string) *redisstore.Storage {
	t.Helper()

	url := TestRedisURL(t)
	var store *redisstore.Storage
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("failed to open test storage: %v", r)
			}
		}()
		store = redisstore.New(redisstore.Config{URL: url})
	}()

	t.Cleanup(func() {
		cleanupKeys(context.Background(), store.Conn(), cleanupPatterns)
		store.Close()
	})
	return store
}

// cleanupKeys removes test data by pattern.
func cleanupKeys(ctx context.Context, client redis.UniversalClient, patterns []string) {
	for _, pattern := range patterns {
		iter := client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
}
