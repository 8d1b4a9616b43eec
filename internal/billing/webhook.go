// Package billing receives the payment provider's webhooks. It is the
// external collaborator that mutates plan and quota-reset state; the gated
// pipeline never calls in here.
package billing

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"

	"github.com/sheetmind/ai-gateway/internal/account"
)

const maxBodyBytes = 65536

type WebhookHandler struct {
	accounts      account.Store
	signingSecret string
	starterPrice  string
	proPrice      string
}

func NewWebhookHandler(accounts account.Store, signingSecret, starterPrice, proPrice string) *WebhookHandler {
	return &WebhookHandler{
		accounts:      accounts,
		signingSecret: signingSecret,
		starterPrice:  starterPrice,
		proPrice:      proPrice,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.signingSecret)
	if err != nil {
		http.Error(w, "invalid webhook signature", http.StatusBadRequest)
		return
	}

	if err := h.handleEvent(r.Context(), event); err != nil {
		log.Printf("billing: failed to handle %s: %v", event.Type, err)
		http.Error(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		// Checkout sessions are created with tenant_id and price_id in
		// metadata, so the plan resolves without another API round-trip.
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		tenantID := session.Metadata["tenant_id"]
		if tenantID == "" {
			log.Printf("billing: checkout session %s without tenant_id metadata, skipping", session.ID)
			return nil
		}

		plan := account.PlanPro
		if session.Metadata["price_id"] == h.starterPrice {
			plan = account.PlanStarter
		}

		acct := &account.Account{
			TenantID: tenantID,
			Plan:     plan,
		}
		if session.Customer != nil {
			acct.StripeCustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			acct.StripeSubscriptionID = session.Subscription.ID
		}
		return h.accounts.UpsertAccount(ctx, acct)

	case "invoice.paid":
		// Monthly renewal: start a fresh quota period.
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return err
		}
		if invoice.Customer == nil {
			return nil
		}
		return h.accounts.ResetQuotaByCustomer(ctx, invoice.Customer.ID)

	default:
		// Unhandled event types are acknowledged, not errors.
		return nil
	}
}
