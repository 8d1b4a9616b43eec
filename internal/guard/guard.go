// Package guard runs the pre-flight checks for every gated operation:
// authentication, rate limiting, quota. All three are read-only; the only
// thing that ever consumes quota is a successful operation going through
// the ledger afterwards.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/sheetmind/ai-gateway/internal/account"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRateLimited     = errors.New("rate limited")
)

// QuotaExhaustedError carries the plan name so callers can present an
// upgrade path alongside remaining=0.
type QuotaExhaustedError struct {
	Plan account.Plan
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("quota exhausted on plan %s", e.Plan)
}

// Authorization is the result of a passed guard: what the tenant may do
// and how much allowance is left before this operation is counted.
type Authorization struct {
	TenantID  string
	Plan      account.Plan
	Remaining int
	Limits    account.Limits
}

type RateLimiter interface {
	Admit(ctx context.Context, tenantID string) (bool, error)
}

type Guard struct {
	accounts account.Store
	limiter  RateLimiter
}

func New(accounts account.Store, limiter RateLimiter) *Guard {
	return &Guard{accounts: accounts, limiter: limiter}
}

// Check runs the three checks in order, short-circuiting on the first
// failure. A rejection here has no side effects: no quota unit, no cache
// entry, nothing written anywhere.
func (g *Guard) Check(ctx context.Context, tenantID string) (*Authorization, error) {
	// 1. Authentication: the middleware resolves the API key to a tenant;
	// an empty identity means it did not.
	if tenantID == "" {
		return nil, ErrUnauthenticated
	}

	// 2. Rate limit. A store error counts as a rejection rather than an
	// open gate.
	admitted, err := g.limiter.Admit(ctx, tenantID)
	if err != nil || !admitted {
		return nil, ErrRateLimited
	}

	// 3. Quota. A tenant with a valid key but no account row gets the
	// fail-closed answer: free plan, nothing remaining.
	acct, err := g.accounts.GetAccount(ctx, tenantID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, &QuotaExhaustedError{Plan: account.PlanFree}
		}
		return nil, fmt.Errorf("failed to read account: %w", err)
	}

	limits := account.LimitsFor(acct.Plan)
	remaining := limits.Credits - acct.QuotaUsed
	if remaining <= 0 {
		return nil, &QuotaExhaustedError{Plan: acct.Plan}
	}

	return &Authorization{
		TenantID:  tenantID,
		Plan:      acct.Plan,
		Remaining: remaining,
		Limits:    limits,
	}, nil
}
