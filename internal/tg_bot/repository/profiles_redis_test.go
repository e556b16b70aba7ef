package repository

import (
	"context"
	"os"
	"testing"
	"time"
)

// The test runs against a real server when TEST_REDIS_ADDR is set.
func TestRedisProfiles(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewRedisProfiles(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 15)
	if err != nil {
		t.Fatalf("NewRedisProfiles: %v", err)
	}
	t.Cleanup(func() {
		_ = store.rdb.Del(context.Background(), profileKey(berlinProfile.ID), profileKey("missing")).Err()
		_ = store.Close()
	})

	if _, ok, err := store.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get of a missing key = %v, %v", ok, err)
	}
	if err = store.Put(ctx, berlinProfile); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, berlinProfile.ID)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got != berlinProfile {
		t.Errorf("profile = %+v, want %+v", got, berlinProfile)
	}
}

func TestRedisProfilesUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisProfiles(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("want error for an unreachable server")
	}
}
