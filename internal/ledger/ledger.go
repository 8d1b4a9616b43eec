// Package ledger is the only place quota state is mutated. One call per
// completed gated operation: debit one unit, append one usage record.
package ledger

import (
	"context"
	"log"
	"time"

	"github.com/sheetmind/ai-gateway/internal/provider"
)

// Entry is the append-only usage fact. Cached entries carry zero tokens
// and zero cost but still represent one consumed quota unit.
type Entry struct {
	ID           string
	TenantID     string
	RequestID    string
	Capability   string
	Tier         provider.Tier
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Cached       bool
	CreatedAt    time.Time
}

type UsageStore interface {
	AppendUsage(ctx context.Context, entry *Entry) error
	GetUsageByTenant(ctx context.Context, tenantID string, from, to time.Time) ([]*Entry, error)
	GetTotalCostByTenant(ctx context.Context, tenantID string, from, to time.Time) (float64, error)
}

type QuotaStore interface {
	IncrementQuota(ctx context.Context, tenantID string) error
}

type Ledger struct {
	quotas QuotaStore
	usage  UsageStore
}

func New(quotas QuotaStore, usage UsageStore) *Ledger {
	return &Ledger{quotas: quotas, usage: usage}
}

// Record debits exactly one quota unit and appends the usage record. The
// two writes are independent operations, debit first; when one of them
// fails the caller has already earned its result, so the inconsistency is
// reported to the operator log and never to the caller.
func (l *Ledger) Record(ctx context.Context, entry *Entry) {
	if err := l.quotas.IncrementQuota(ctx, entry.TenantID); err != nil {
		log.Printf("ledger: quota increment failed for tenant %s (request %s): %v",
			entry.TenantID, entry.RequestID, err)
	}
	if err := l.usage.AppendUsage(ctx, entry); err != nil {
		log.Printf("ledger: usage append failed for tenant %s (request %s): %v",
			entry.TenantID, entry.RequestID, err)
	}
}
