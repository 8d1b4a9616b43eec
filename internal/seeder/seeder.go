package seeder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/sheetmind/ai-gateway/internal/account"
	"github.com/sheetmind/ai-gateway/internal/auth"
)

const (
	TestAPIKey   = "test-api-key-12345"
	TestTenantID = "00000000-0000-0000-0000-000000000001"
)

// SeedTestTenant creates a free-plan account and its API key for local
// development.
func SeedTestTenant(ctx context.Context, keys auth.Store, accounts account.Store) {
	if err := accounts.UpsertAccount(ctx, &account.Account{
		TenantID:     TestTenantID,
		Plan:         account.PlanFree,
		QuotaResetAt: time.Now(),
	}); err != nil {
		log.Printf("[Seeder] failed to upsert test account: %v", err)
		return
	}

	h := sha256.New()
	h.Write([]byte(TestAPIKey))
	keyHash := hex.EncodeToString(h.Sum(nil))

	apiKey := &auth.APIKey{
		TenantID: TestTenantID,
		KeyHash:  keyHash,
		Active:   true,
	}

	if err := keys.Create(ctx, apiKey); err != nil {
		log.Printf("[Seeder] API key may already exist, skipping: %v", err)
		return
	}
	log.Printf("[Seeder] Test API key created successfully")
	log.Printf("[Seeder] Key: %s", TestAPIKey)
	log.Printf("[Seeder] TenantID: %s", TestTenantID)
}
