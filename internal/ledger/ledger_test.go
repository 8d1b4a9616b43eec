package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sheetmind/ai-gateway/internal/provider"
)

type mockQuotaStore struct {
	incrementFunc func(ctx context.Context, tenantID string) error
	increments    []string
}

func (m *mockQuotaStore) IncrementQuota(ctx context.Context, tenantID string) error {
	m.increments = append(m.increments, tenantID)
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, tenantID)
	}
	return nil
}

type mockUsageStore struct {
	appendFunc func(ctx context.Context, entry *Entry) error
	entries    []*Entry
}

func (m *mockUsageStore) AppendUsage(ctx context.Context, entry *Entry) error {
	m.entries = append(m.entries, entry)
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	return nil
}

func (m *mockUsageStore) GetUsageByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]*Entry, error) {
	return m.entries, nil
}

func (m *mockUsageStore) GetTotalCostByTenant(ctx context.Context, tenantID string, from, to time.Time) (float64, error) {
	var total float64
	for _, e := range m.entries {
		total += e.CostUSD
	}
	return total, nil
}

func TestRecord_DebitsAndAppends(t *testing.T) {
	quotas := &mockQuotaStore{}
	usage := &mockUsageStore{}
	l := New(quotas, usage)

	l.Record(context.Background(), &Entry{
		TenantID:     "tenant-1",
		RequestID:    "req-1",
		Capability:   "formula",
		Tier:         provider.TierFast,
		InputTokens:  100,
		OutputTokens: 50,
		CostUSD:      0.0001,
	})

	if len(quotas.increments) != 1 || quotas.increments[0] != "tenant-1" {
		t.Errorf("Expected one quota increment for tenant-1, got %v", quotas.increments)
	}
	if len(usage.entries) != 1 {
		t.Fatalf("Expected one usage entry, got %d", len(usage.entries))
	}
	if usage.entries[0].Capability != "formula" {
		t.Errorf("Expected formula capability, got %s", usage.entries[0].Capability)
	}
}

func TestRecord_CachedEntryStillDebits(t *testing.T) {
	quotas := &mockQuotaStore{}
	usage := &mockUsageStore{}
	l := New(quotas, usage)

	l.Record(context.Background(), &Entry{
		TenantID:   "tenant-1",
		RequestID:  "req-1",
		Capability: "formula",
		Tier:       provider.TierFast,
		Cached:     true,
	})

	if len(quotas.increments) != 1 {
		t.Errorf("Expected cache hit to debit exactly one unit, got %d", len(quotas.increments))
	}
	if len(usage.entries) != 1 || !usage.entries[0].Cached {
		t.Errorf("Expected one cached usage entry")
	}
	if usage.entries[0].CostUSD != 0 {
		t.Errorf("Expected zero cost on cached entry, got %v", usage.entries[0].CostUSD)
	}
}

func TestRecord_PartialFailureStillAttemptsBothWrites(t *testing.T) {
	quotas := &mockQuotaStore{
		incrementFunc: func(ctx context.Context, tenantID string) error {
			return errors.New("increment failed")
		},
	}
	usage := &mockUsageStore{}
	l := New(quotas, usage)

	// The two writes are independent: a failed debit must not stop the
	// usage append (and vice versa), and nothing propagates to the caller.
	l.Record(context.Background(), &Entry{TenantID: "tenant-1", RequestID: "req-1"})

	if len(usage.entries) != 1 {
		t.Errorf("Expected usage append despite increment failure, got %d entries", len(usage.entries))
	}
}
