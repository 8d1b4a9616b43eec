package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupCache(t *testing.T) (*ResponseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb), mr
}

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("formula", "fast", "sum column b", "excel")
	k2 := Key("formula", "fast", "sum column b", "excel")
	if k1 != k2 {
		t.Errorf("Expected identical keys, got %s and %s", k1, k2)
	}
}

func TestKey_Normalization(t *testing.T) {
	// Case and surrounding whitespace must not change the key, for any
	// parameter position, not just the first or last.
	k1 := Key("formula", "fast", "Sum Column B", "excel")
	k2 := Key("formula", "fast", "  sum column b  ", "excel")
	if k1 != k2 {
		t.Errorf("Expected normalized keys to match, got %s and %s", k1, k2)
	}

	k3 := Key("formula", " FAST ", "sum column b", " Excel")
	if k1 != k3 {
		t.Errorf("Expected per-part normalization, got %s and %s", k1, k3)
	}

	if Key("formula", "fast", "a") == Key("formula", "fast", "b") {
		t.Errorf("Expected different inputs to produce different keys")
	}
}

func TestKey_BoundedLength(t *testing.T) {
	long := strings.Repeat("x", 100_000)
	key := Key("insights", "smart", long)
	if len(key) > len("cache:insights:")+32 {
		t.Errorf("Expected bounded key length, got %d", len(key))
	}
	if !strings.HasPrefix(key, "cache:insights:") {
		t.Errorf("Expected capability prefix, got %s", key)
	}
}

func TestGetSet_RoundTrip(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	key := Key("formula", "fast", "sum column b", "excel")

	if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Fatalf("Expected ErrMiss before set, got %v", err)
	}

	if err := c.Set(ctx, key, "=SUM(B:B)"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "=SUM(B:B)" {
		t.Errorf("Expected =SUM(B:B), got %s", val)
	}
}

func TestSet_AppliesTTL(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	key := Key("formula", "fast", "q", "excel")

	if err := c.Set(ctx, key, "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if ttl := mr.TTL(key); ttl != TTL {
		t.Errorf("Expected TTL %v, got %v", TTL, ttl)
	}

	// Passive expiry: once the retention window passes the entry is a miss.
	mr.FastForward(TTL + 1)
	if _, err := c.Get(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("Expected ErrMiss after TTL, got %v", err)
	}
}

func TestGet_StoreDownIsNotAMissError(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "cache:formula:deadbeef")
	if err == nil {
		t.Fatal("Expected error from closed store")
	}
	if errors.Is(err, ErrMiss) {
		t.Errorf("Expected a store error distinguishable from ErrMiss")
	}
}
