package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, "alice", time.Minute)

	if _, ok, err := store.Get(ctx, "token"); ok || err != nil {
		t.Fatalf("expected missing token, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := mr.HGet("quizroom:session:alice", "token"); got != "abc" {
		t.Fatalf("expected token in hash, got %q", got)
	}
	if ttl := mr.TTL("quizroom:session:alice"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed to 1m, got %v", ttl)
	}

	v, ok, err := store.Get(ctx, "token")
	if err != nil || !ok || v != "abc" {
		t.Fatalf("expected abc, got %q ok=%v err=%v", v, ok, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists("quizroom:session:alice") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreProfilesAreIsolated(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	a := NewSessionStore(client, "a", 0)
	b := NewSessionStore(client, "b", 0)

	_ = a.Set(ctx, "userEmail", "a@x.com")
	if _, ok, _ := b.Get(ctx, "userEmail"); ok {
		t.Fatalf("profile b must not see profile a")
	}
	if mr.TTL("quizroom:session:a") != 0 {
		t.Fatalf("expected no ttl when ttl is zero")
	}
}
