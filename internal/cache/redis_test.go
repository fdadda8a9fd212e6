package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadgen/internal/testutil"
)

func TestCache_RedisStorage(t *testing.T) {
	store := testutil.TestStorage(t, KeyPrefix+"company:*")
	c := New(store, map[string]time.Duration{OpCompany: time.Minute})
	ctx := context.Background()

	key := CompanyKey(uuid.NewString() + ".example")
	var got map[string]string
	if c.Get(ctx, key, &got) {
		t.Fatal("fresh key should miss")
	}

	c.Set(ctx, key, map[string]string{"name": "Acme"})
	if !c.Get(ctx, key, &got) || got["name"] != "Acme" {
		t.Fatalf("Get() = %v, want Acme", got)
	}

	ttl, err := store.Conn().PTTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("PTTL = %v, want within (0, 1m]", ttl)
	}
}
