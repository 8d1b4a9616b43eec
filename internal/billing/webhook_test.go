package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v72"

	"github.com/sheetmind/ai-gateway/internal/account"
)

type mockAccountStore struct {
	upserted []*account.Account
	resets   []string
}

func (m *mockAccountStore) GetAccount(ctx context.Context, tenantID string) (*account.Account, error) {
	return nil, account.ErrAccountNotFound
}

func (m *mockAccountStore) IncrementQuota(ctx context.Context, tenantID string) error { return nil }

func (m *mockAccountStore) UpsertAccount(ctx context.Context, acct *account.Account) error {
	m.upserted = append(m.upserted, acct)
	return nil
}

func (m *mockAccountStore) ResetQuotaByCustomer(ctx context.Context, stripeCustomerID string) error {
	m.resets = append(m.resets, stripeCustomerID)
	return nil
}

func newTestHandler(store *mockAccountStore) *WebhookHandler {
	return NewWebhookHandler(store, "whsec_test", "price_starter", "price_pro")
}

func event(t *testing.T, eventType string, object interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	if err != nil {
		t.Fatalf("Failed to marshal event object: %v", err)
	}
	return stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEvent_CheckoutUpgradesPlan(t *testing.T) {
	store := &mockAccountStore{}
	h := newTestHandler(store)

	err := h.handleEvent(context.Background(), event(t, "checkout.session.completed", map[string]interface{}{
		"id":       "cs_1",
		"customer": map[string]string{"id": "cus_1"},
		"metadata": map[string]string{
			"tenant_id": "tenant-1",
			"price_id":  "price_starter",
		},
	}))
	if err != nil {
		t.Fatalf("handleEvent failed: %v", err)
	}

	if len(store.upserted) != 1 {
		t.Fatalf("Expected one upsert, got %d", len(store.upserted))
	}
	acct := store.upserted[0]
	if acct.TenantID != "tenant-1" || acct.Plan != account.PlanStarter {
		t.Errorf("Expected tenant-1 on starter, got %+v", acct)
	}
	if acct.StripeCustomerID != "cus_1" {
		t.Errorf("Expected customer id carried over, got %q", acct.StripeCustomerID)
	}
}

func TestHandleEvent_UnknownPriceDefaultsToPro(t *testing.T) {
	store := &mockAccountStore{}
	h := newTestHandler(store)

	err := h.handleEvent(context.Background(), event(t, "checkout.session.completed", map[string]interface{}{
		"id": "cs_2",
		"metadata": map[string]string{
			"tenant_id": "tenant-1",
			"price_id":  "price_pro",
		},
	}))
	if err != nil {
		t.Fatalf("handleEvent failed: %v", err)
	}
	if store.upserted[0].Plan != account.PlanPro {
		t.Errorf("Expected pro plan, got %s", store.upserted[0].Plan)
	}
}

func TestHandleEvent_CheckoutWithoutTenantIsSkipped(t *testing.T) {
	store := &mockAccountStore{}
	h := newTestHandler(store)

	err := h.handleEvent(context.Background(), event(t, "checkout.session.completed", map[string]interface{}{
		"id":       "cs_3",
		"metadata": map[string]string{},
	}))
	if err != nil {
		t.Fatalf("Expected missing metadata to be skipped, got %v", err)
	}
	if len(store.upserted) != 0 {
		t.Errorf("Expected no upsert, got %d", len(store.upserted))
	}
}

func TestHandleEvent_InvoicePaidResetsQuota(t *testing.T) {
	store := &mockAccountStore{}
	h := newTestHandler(store)

	err := h.handleEvent(context.Background(), event(t, "invoice.paid", map[string]interface{}{
		"id":       "in_1",
		"customer": map[string]string{"id": "cus_1"},
	}))
	if err != nil {
		t.Fatalf("handleEvent failed: %v", err)
	}
	if len(store.resets) != 1 || store.resets[0] != "cus_1" {
		t.Errorf("Expected one reset for cus_1, got %v", store.resets)
	}
}

func TestHandleEvent_UnknownTypeIsAcknowledged(t *testing.T) {
	store := &mockAccountStore{}
	h := newTestHandler(store)

	err := h.handleEvent(context.Background(), event(t, "customer.created", map[string]interface{}{"id": "cus_9"}))
	if err != nil {
		t.Errorf("Expected unknown event type to be acknowledged, got %v", err)
	}
	if len(store.upserted) != 0 || len(store.resets) != 0 {
		t.Error("Expected no store writes for unknown event type")
	}
}

func TestServeHTTP_RejectsBadSignature(t *testing.T) {
	h := newTestHandler(&mockAccountStore{})

	r := httptest.NewRequest("POST", "/webhooks/billing", strings.NewReader(`{"type":"invoice.paid"}`))
	r.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad signature, got %d", rec.Code)
	}
}
