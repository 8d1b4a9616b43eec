package ratelimit

import (
	"context"
	"errors"
	"testing"

	extratelimit "github.com/vnmchuo/ratelimiter"
)

type mockLimiterStore struct {
	allowed bool
	err     error
	keys    []string
}

func (m *mockLimiterStore) Allow(ctx context.Context, key string) (*extratelimit.Result, error) {
	m.keys = append(m.keys, key)
	return &extratelimit.Result{Allowed: m.allowed}, m.err
}

func (m *mockLimiterStore) AllowN(ctx context.Context, key string, n int) (*extratelimit.Result, error) {
	m.keys = append(m.keys, key)
	return &extratelimit.Result{Allowed: m.allowed}, m.err
}

func (m *mockLimiterStore) Status(ctx context.Context, key string) (*extratelimit.Result, error) {
	return &extratelimit.Result{Allowed: m.allowed}, m.err
}

func TestAdmit(t *testing.T) {
	store := &mockLimiterStore{allowed: true}
	l := NewTestLimiter(store)

	ok, err := l.Admit(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if !ok {
		t.Error("Expected admission")
	}
	if len(store.keys) != 1 || store.keys[0] != "ratelimit:tenant:tenant-1" {
		t.Errorf("Expected per-tenant key, got %v", store.keys)
	}
}

func TestAdmit_Denied(t *testing.T) {
	l := NewTestLimiter(&mockLimiterStore{allowed: false})

	ok, err := l.Admit(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if ok {
		t.Error("Expected denial")
	}
}

func TestAdmit_StoreError(t *testing.T) {
	l := NewTestLimiter(&mockLimiterStore{allowed: true, err: errors.New("redis down")})

	ok, err := l.Admit(context.Background(), "tenant-1")
	if err == nil {
		t.Fatal("Expected store error to propagate")
	}
	if ok {
		t.Error("Expected denial on store error")
	}
}
