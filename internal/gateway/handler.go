package gateway

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sheetmind/ai-gateway/internal/account"
	"github.com/sheetmind/ai-gateway/internal/auth"
	"github.com/sheetmind/ai-gateway/internal/guard"
	"github.com/sheetmind/ai-gateway/internal/ledger"
	"github.com/sheetmind/ai-gateway/internal/provider"
	"github.com/sheetmind/ai-gateway/internal/templates"
)

type Handler struct {
	svc       *Service
	usage     ledger.UsageStore
	templates templates.Store
}

func NewHandler(svc *Service, usage ledger.UsageStore, tplStore templates.Store) *Handler {
	return &Handler{
		svc:       svc,
		usage:     usage,
		templates: tplStore,
	}
}

var formulaPlatforms = map[string]bool{
	"excel":       true,
	"sheets":      true,
	"libreoffice": true,
	"airtable":    true,
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *Handler) HandleFormula(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
		Platform string `json:"platform"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Platform == "" {
		body.Platform = "excel"
	}

	if n := len(body.Question); n < 3 || n > 500 {
		writeError(w, &ValidationError{Reason: "question must be 3-500 characters"})
		return
	}
	if !formulaPlatforms[body.Platform] {
		writeError(w, &ValidationError{Reason: fmt.Sprintf("unknown platform %q", body.Platform)})
		return
	}

	result, err := h.svc.Run(r.Context(), &Request{
		TenantID:   auth.GetTenantID(r.Context()),
		RequestID:  requestID(r),
		Capability: CapabilityFormula,
		Question:   body.Question,
		Platform:   body.Platform,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":    result.Text,
		"tier":      result.Tier,
		"cost_usd":  result.CostUSD,
		"cached":    result.Cached,
		"remaining": result.Remaining,
	})
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question    string        `json:"question"`
		FileName    string        `json:"file_name"`
		FileContext string        `json:"file_context"`
		History     []historyTurn `json:"history"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if n := len(body.Question); n < 1 || n > 1000 {
		writeError(w, &ValidationError{Reason: "question must be 1-1000 characters"})
		return
	}
	history, err := mapHistory(body.History)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Run(r.Context(), &Request{
		TenantID:    auth.GetTenantID(r.Context()),
		RequestID:   requestID(r),
		Capability:  CapabilityChat,
		Question:    body.Question,
		FileName:    body.FileName,
		FileContext: body.FileContext,
		History:     history,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":    result.Text,
		"tier":      result.Tier,
		"cost_usd":  result.CostUSD,
		"cached":    result.Cached,
		"remaining": result.Remaining,
	})
}

func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileName    string   `json:"file_name"`
		FileContext string   `json:"file_context"`
		Analyses    []string `json:"analyses"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if len(body.Analyses) == 0 {
		writeError(w, &ValidationError{Reason: "at least one analysis is required"})
		return
	}
	for _, a := range body.Analyses {
		if !InsightAnalyses[a] {
			writeError(w, &ValidationError{Reason: fmt.Sprintf("unknown analysis %q", a)})
			return
		}
	}

	result, err := h.svc.RunInsights(r.Context(), &InsightsRequest{
		TenantID:    auth.GetTenantID(r.Context()),
		RequestID:   requestID(r),
		FileName:    body.FileName,
		FileContext: body.FileContext,
		Analyses:    body.Analyses,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":   result.Results,
		"cost_usd":  result.CostUSD,
		"cached":    result.Cached,
		"remaining": result.Remaining,
	})
}

func (h *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string        `json:"description"`
		History     []historyTurn `json:"history"`
		Confirmed   bool          `json:"confirmed"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if n := len(body.Description); n < 5 || n > 500 {
		writeError(w, &ValidationError{Reason: "description must be 5-500 characters"})
		return
	}
	history, err := mapHistory(body.History)
	if err != nil {
		writeError(w, err)
		return
	}

	tenantID := auth.GetTenantID(r.Context())
	result, err := h.svc.Run(r.Context(), &Request{
		TenantID:   tenantID,
		RequestID:  requestID(r),
		Capability: CapabilityTemplate,
		Question:   body.Description,
		History:    history,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	tpl, ready := templates.Parse(result.Text)
	if ready && body.Confirmed {
		tpl.TenantID = tenantID
		if days := account.LimitsFor(result.Plan).TemplateRetentionDays; days > 0 {
			expires := time.Now().AddDate(0, 0, days)
			tpl.ExpiresAt = &expires
		}
		if err := h.templates.Create(r.Context(), tpl); err != nil {
			writeError(w, err)
			return
		}
	}

	resp := map[string]interface{}{
		"result":    result.Text,
		"ready":     ready,
		"cost_usd":  result.CostUSD,
		"remaining": result.Remaining,
	}
	if ready {
		resp["template"] = tpl
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleTemplateExport renders a stored template as CSV: header row plus
// one example row.
func (h *Handler) HandleTemplateExport(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.GetTenantID(r.Context())
	if tenantID == "" {
		writeError(w, guard.ErrUnauthenticated)
		return
	}

	if format := r.URL.Query().Get("format"); format != "" && format != "csv" {
		writeError(w, &ValidationError{Reason: fmt.Sprintf("unsupported export format %q", format)})
		return
	}

	tpl, err := h.templates.Get(r.Context(), chi.URLParam(r, "id"), tenantID)
	if err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
			return
		}
		writeError(w, err)
		return
	}

	header := make([]string, len(tpl.Columns))
	example := make([]string, len(tpl.Columns))
	for i, c := range tpl.Columns {
		header[i] = c.Name
		example[i] = c.Example
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tpl.Name+".csv"))
	cw := csv.NewWriter(w)
	_ = cw.Write(header)
	_ = cw.Write(example)
	cw.Flush()
}

func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := auth.GetTenantID(ctx)
	if tenantID == "" {
		writeError(w, guard.ErrUnauthenticated)
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -30) // default: last 30 days
	to := now

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		var err error
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			writeError(w, &ValidationError{Reason: "invalid 'from' date format (use RFC3339)"})
			return
		}
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		var err error
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			writeError(w, &ValidationError{Reason: "invalid 'to' date format (use RFC3339)"})
			return
		}
	}

	entries, err := h.usage.GetUsageByTenant(ctx, tenantID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	totalCost, err := h.usage.GetTotalCostByTenant(ctx, tenantID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id":      tenantID,
		"total_requests": len(entries),
		"total_cost_usd": totalCost,
		"logs":           entries,
		"from":           from,
		"to":             to,
	})
}

func requestID(r *http.Request) string {
	if id := auth.GetRequestID(r.Context()); id != "" {
		return id
	}
	return uuid.New().String()
}

func mapHistory(turns []historyTurn) ([]provider.Message, error) {
	history := make([]provider.Message, len(turns))
	for i, t := range turns {
		if t.Role != "user" && t.Role != "assistant" {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid history role %q", t.Role)}
		}
		history[i] = provider.Message{Role: t.Role, Content: t.Content}
	}
	return history, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if auth.GetTenantID(r.Context()) == "" {
		writeError(w, guard.ErrUnauthenticated)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, &ValidationError{Reason: "invalid request body"})
		return false
	}
	return true
}

// writeError maps the rejection taxonomy onto HTTP statuses. The first
// failing check won upstream; here we only translate.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	var quotaErr *guard.QuotaExhaustedError
	var providerErr *ProviderError

	switch {
	case errors.Is(err, guard.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated"})
	case errors.Is(err, guard.ErrRateLimited):
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, map[string]string{
			"error":       "rate limit exceeded",
			"retry_after": "60s",
		})
	case errors.As(err, &quotaErr):
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":       "quota exhausted",
			"remaining":   0,
			"plan":        quotaErr.Plan,
			"upgrade_url": "/#pricing",
		})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Reason})
	case errors.As(err, &providerErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": providerErr.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
