package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) Store {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetAccount(ctx context.Context, tenantID string) (*Account, error) {
	query := `
		SELECT tenant_id, plan, quota_used, quota_reset_at,
		       COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''), created_at
		FROM accounts
		WHERE tenant_id = $1
	`

	var a Account
	err := s.db.QueryRow(ctx, query, tenantID).Scan(
		&a.TenantID, &a.Plan, &a.QuotaUsed, &a.QuotaResetAt,
		&a.StripeCustomerID, &a.StripeSubscriptionID, &a.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &a, nil
}

func (s *PostgresStore) IncrementQuota(ctx context.Context, tenantID string) error {
	// Single atomic statement so concurrent requests from the same tenant
	// never lose an increment.
	query := `UPDATE accounts SET quota_used = quota_used + 1 WHERE tenant_id = $1`
	tag, err := s.db.Exec(ctx, query, tenantID)
	if err != nil {
		return fmt.Errorf("failed to increment quota: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (s *PostgresStore) UpsertAccount(ctx context.Context, acct *Account) error {
	query := `
		INSERT INTO accounts (tenant_id, plan, quota_used, quota_reset_at, stripe_customer_id, stripe_subscription_id)
		VALUES ($1, $2, 0, now(), $3, $4)
		ON CONFLICT (tenant_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			quota_used = 0,
			quota_reset_at = now(),
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id
	`
	_, err := s.db.Exec(ctx, query, acct.TenantID, acct.Plan, acct.StripeCustomerID, acct.StripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	return nil
}

func (s *PostgresStore) ResetQuotaByCustomer(ctx context.Context, stripeCustomerID string) error {
	query := `UPDATE accounts SET quota_used = 0, quota_reset_at = now() WHERE stripe_customer_id = $1`
	tag, err := s.db.Exec(ctx, query, stripeCustomerID)
	if err != nil {
		return fmt.Errorf("failed to reset quota: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}
