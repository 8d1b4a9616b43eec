package account

import (
	"context"
	"errors"
	"time"
)

var ErrAccountNotFound = errors.New("account not found")

type Plan string

const (
	PlanFree    Plan = "free"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
)

// Limits is the read-only configuration attached to a plan. Never mutated
// at runtime.
type Limits struct {
	Credits               int // gated operations per billing period
	MaxInputBytes         int // upper bound on attached file context
	InsightSessions       int // 0 means unlimited
	TemplateRetentionDays int // 0 means permanent
}

var planLimits = map[Plan]Limits{
	PlanFree:    {Credits: 10, MaxInputBytes: 1 << 20, InsightSessions: 2, TemplateRetentionDays: 30},
	PlanStarter: {Credits: 600, MaxInputBytes: 5 << 20, InsightSessions: 10},
	PlanPro:     {Credits: 1500, MaxInputBytes: 10 << 20},
}

// LimitsFor returns the limits for a plan. Unknown plans get the free
// limits so a bad row fails closed.
func LimitsFor(p Plan) Limits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Account holds the per-tenant quota state. quota_used only moves up via
// the ledger's atomic increment and back to zero via a billing event.
type Account struct {
	TenantID             string
	Plan                 Plan
	QuotaUsed            int
	QuotaResetAt         time.Time
	StripeCustomerID     string
	StripeSubscriptionID string
	CreatedAt            time.Time
}

type Store interface {
	GetAccount(ctx context.Context, tenantID string) (*Account, error)
	// IncrementQuota adds one to quota_used as an atomic store-level
	// operation, never a read-modify-write in the gateway.
	IncrementQuota(ctx context.Context, tenantID string) error
	// UpsertAccount sets the plan and resets the quota period. Called by
	// the billing collaborator, not by the gated pipeline.
	UpsertAccount(ctx context.Context, acct *Account) error
	ResetQuotaByCustomer(ctx context.Context, stripeCustomerID string) error
}
