package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/app/middleware"
)

func TestIdempotencyStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("VENUEBOOK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VENUEBOOK_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, Options{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	store := NewIdempotencyStore(client, time.Minute)
	key := "booking.create:customer-1:" + uuid.NewString()
	defer client.Del(ctx, idempotencyPrefix+key)

	if _, found, err := store.Get(ctx, key); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}
	rec := middleware.IdempotencyRecord{Key: key, Error: "booking: slot not available", ErrorKind: "validation", ErrorCode: "slot_unavailable"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := store.Get(ctx, key)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.ErrorCode != "slot_unavailable" || got.OccurredAt.IsZero() {
		t.Fatalf("unexpected record %+v", got)
	}
	ttl, err := client.TTL(ctx, idempotencyPrefix+key).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %s (%v)", ttl, err)
	}
}
